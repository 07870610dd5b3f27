package statistics

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/foundersbridge/foundersbridge/app/models"
	"github.com/foundersbridge/foundersbridge/internal/pkg/cache"
	"github.com/foundersbridge/foundersbridge/internal/pkg/database"
)

const (
	CacheKeyOrgsTotal     = "statistics:organizations:total"
	CacheKeyRequestsDaily = "statistics:engagements:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyUsers         = "statistics:users:total"
	CacheExpiration       = 30 * time.Minute
)

// StatisticsData is the platform-level snapshot served to operators.
type StatisticsData struct {
	TodayRequests int
	TotalUsers    int
	TotalOrgs     int
}

var (
	lastCacheUpdate     time.Time
	cacheUpdateMutex    sync.Mutex
	cacheUpdateInterval = 5 * time.Minute
)

// ShouldUpdateCache checks whether the cache is due for a refresh
func ShouldUpdateCache() bool {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	return time.Since(lastCacheUpdate) > cacheUpdateInterval
}

// UpdateCacheIfNeeded refreshes the cache when the interval has elapsed
func UpdateCacheIfNeeded() {
	if ShouldUpdateCache() {
		cacheUpdateMutex.Lock()
		defer cacheUpdateMutex.Unlock()

		log.Println("Updating statistics cache...")
		if err := UpdateStatisticsCache(); err != nil {
			log.Printf("Error updating statistics cache: %v", err)
		} else {
			log.Println("Statistics cache updated successfully")
			lastCacheUpdate = time.Now()
		}
	}
}

// ResetCacheUpdateTimer forces the next read to refresh the cache
func ResetCacheUpdateTimer() {
	cacheUpdateMutex.Lock()
	defer cacheUpdateMutex.Unlock()

	lastCacheUpdate = time.Time{}
}

// UpdateStatisticsCache updates all statistics in the cache
func UpdateStatisticsCache() error {
	// Get database connection
	db := database.GetDB()

	// Count total organizations
	var totalOrgs int64
	if err := db.Model(&models.Organization{}).Count(&totalOrgs).Error; err != nil {
		log.Printf("Error counting total organizations: %v", err)
		return err
	}

	// Count today's engagement requests
	var todayRequests int64
	today := time.Now().Format("2006-01-02")
	todayStart, _ := time.Parse("2006-01-02", today)
	todayEnd := todayStart.Add(24 * time.Hour)

	if err := db.Model(&models.EngagementRequest{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&todayRequests).Error; err != nil {
		log.Printf("Error counting today's engagement requests: %v", err)
		return err
	}

	// Count total users
	var totalUsers int64
	if err := db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		log.Printf("Error counting total users: %v", err)
		return err
	}

	// Store values in cache
	if err := cache.Set(CacheKeyOrgsTotal, strconv.FormatInt(totalOrgs, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total organizations: %v", err)
		return err
	}

	dailyKey := fmt.Sprintf(CacheKeyRequestsDaily, today)
	if err := cache.Set(dailyKey, strconv.FormatInt(todayRequests, 10), CacheExpiration); err != nil {
		log.Printf("Error caching today's engagement requests: %v", err)
		return err
	}

	if err := cache.Set(CacheKeyUsers, strconv.FormatInt(totalUsers, 10), CacheExpiration); err != nil {
		log.Printf("Error caching total users: %v", err)
		return err
	}

	log.Printf("Statistics updated in cache: Total Orgs: %d, Today's Requests: %d, Total Users: %d",
		totalOrgs, todayRequests, totalUsers)

	return nil
}

// GetTotalOrgs returns the total number of organizations from cache or database
func GetTotalOrgs() int {
	// Try to get from cache first
	val, err := cache.Get(CacheKeyOrgsTotal)
	if err != nil {
		// If not in cache, get from database and update cache
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.Organization{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total organizations: %v", err)
			return 0
		}

		// Update cache
		if err := cache.Set(CacheKeyOrgsTotal, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total organizations: %v", err)
		}

		return int(count)
	}

	// Convert string to int
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTodayRequests returns the number of engagement requests opened today
func GetTodayRequests() int {
	today := time.Now().Format("2006-01-02")
	dailyKey := fmt.Sprintf(CacheKeyRequestsDaily, today)

	// Try to get from cache first
	val, err := cache.Get(dailyKey)
	if err != nil {
		// If not in cache, get from database and update cache
		var count int64
		db := database.GetDB()
		todayStart, _ := time.Parse("2006-01-02", today)
		todayEnd := todayStart.Add(24 * time.Hour)

		if err := db.Model(&models.EngagementRequest{}).Where("created_at BETWEEN ? AND ?", todayStart, todayEnd).Count(&count).Error; err != nil {
			log.Printf("Error counting today's engagement requests: %v", err)
			return 0
		}

		// Update cache
		if err := cache.Set(dailyKey, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching today's engagement requests: %v", err)
		}

		return int(count)
	}

	// Convert string to int
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetTotalUsers returns the total number of users from cache or database
func GetTotalUsers() int {
	// Try to get from cache first
	val, err := cache.Get(CacheKeyUsers)
	if err != nil {
		// If not in cache, get from database and update cache
		var count int64
		db := database.GetDB()
		if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
			log.Printf("Error counting total users: %v", err)
			return 0
		}

		// Update cache
		if err := cache.Set(CacheKeyUsers, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
			log.Printf("Error caching total users: %v", err)
		}

		return int(count)
	}

	// Convert string to int
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0
	}

	return int(count)
}

// GetStatisticsData returns all statistics data as StatisticsData structure
func GetStatisticsData() StatisticsData {
	UpdateCacheIfNeeded()

	return StatisticsData{
		TodayRequests: GetTodayRequests(),
		TotalUsers:    GetTotalUsers(),
		TotalOrgs:     GetTotalOrgs(),
	}
}
