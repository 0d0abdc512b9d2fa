// Meridian - financial coaching admin backend
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/meridianfc/meridian/internal/api"
	"github.com/meridianfc/meridian/internal/auth"
	"github.com/meridianfc/meridian/internal/cache"
	"github.com/meridianfc/meridian/internal/clients"
	"github.com/meridianfc/meridian/internal/config"
	"github.com/meridianfc/meridian/internal/database"
	"github.com/meridianfc/meridian/internal/models"
	"github.com/meridianfc/meridian/internal/rbac"
	"github.com/meridianfc/meridian/internal/store"
	"github.com/meridianfc/meridian/internal/template"
	"github.com/meridianfc/meridian/pkg/logger"
)

var Version = "1.0.0"

func main() {
	_ = godotenv.Load()
	logger.Init(getEnv("LOG_LEVEL", "info"), getEnv("LOG_FORMAT", "json"))

	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	log := logger.Get()
	log.Info().Str("version", Version).Msg("meridian starting")

	db := connectDB()
	log.Info().Msg("database connected")

	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Msg("migrations complete")

	configSvc := config.NewService(db)
	if err := configSvc.SetupDefaultConfig(); err != nil {
		log.Fatal().Err(err).Msg("default config setup failed")
	}
	cfg := configSvc.LoadConfig()
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	stores := store.NewGormStores(db)
	appCache := openCache()
	defer appCache.Close()

	jwtSvc := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.AccessExpiry, cfg.Auth.RefreshExpiry)
	templateEngine := template.NewEngine(stores.Templates, log)
	roleSvc := rbac.NewService(stores.Roles, appCache, log)
	clientSvc := clients.NewService(stores.Clients, stores.Templates, log)

	handler := api.NewHandler(stores, templateEngine, roleSvc, clientSvc, configSvc, jwtSvc, log)
	router := api.SetupRouter(handler, cfg)

	log.Info().Str("port", cfg.Server.Port).Msg("server starting")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func connectDB() *gorm.DB {
	log := logger.Get()
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		requireEnv("DB_HOST"),
		requireEnv("DB_PORT"),
		requireEnv("DB_USER"),
		requireEnv("DB_PASSWORD"),
		requireEnv("DB_NAME"),
		getEnv("DB_SSLMODE", "disable"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	return db
}

// openCache picks Redis when REDIS_ADDR is set, in-process memory otherwise
func openCache() cache.Cache {
	log := logger.Get()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Info().Msg("using in-memory cache")
		return cache.NewMemoryCache()
	}

	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		fmt.Sscanf(v, "%d", &db)
	}
	redisCache, err := cache.NewRedisCache(addr, os.Getenv("REDIS_PASSWORD"), db)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, falling back to in-memory cache")
		return cache.NewMemoryCache()
	}
	log.Info().Str("addr", addr).Msg("using redis cache")
	return redisCache
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log := logger.Get()
		log.Fatal().Str("key", key).Msg("missing required env")
	}
	return value
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CLI
func runCLI() {
	switch os.Args[1] {
	case "serve":
		startServer()
	case "setup":
		runSetup()
	case "migrate":
		db := connectDB()
		if err := database.RunMigrations(db); err != nil {
			log := logger.Get()
			log.Fatal().Err(err).Msg("migration failed")
		}
		fmt.Println("Migrations complete")
	case "user":
		runUserCmd()
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: meridian <command>
Commands:
  setup                              Interactive setup wizard
  serve                              Start server
  migrate                            Run migrations
  user list                          List users
  user create --email= --password=   Create user (--role= to assign a role by name)`)
}

func runUserCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	log := logger.Get()
	db := connectDB()
	switch os.Args[2] {
	case "list":
		var users []models.User
		db.Find(&users)
		for _, u := range users {
			fmt.Printf("%s <%s>\n", strings.TrimSpace(u.FirstName+" "+u.LastName), u.Email)
		}
	case "create":
		email := getFlag("--email")
		password := getFlag("--password")
		if email == "" || password == "" {
			printUsage()
			return
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to hash password")
		}
		user := models.User{
			Email:        email,
			PasswordHash: hash,
			FirstName:    getFlag("--first"),
			LastName:     getFlag("--last"),
			IsActive:     true,
		}
		if roleName := getFlag("--role"); roleName != "" {
			var role models.Role
			if db.Where("name = ?", roleName).First(&role).Error != nil {
				log.Fatal().Str("role", roleName).Msg("role not found")
			}
			user.RoleID = &role.ID
		}
		if err := db.Create(&user).Error; err != nil {
			log.Fatal().Err(err).Msg("failed to create user")
		}
		fmt.Printf("User created: %s\n", email)
	}
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if strings.HasPrefix(arg, prefix) {
			return arg[len(prefix):]
		}
	}
	return ""
}

// Interactive Setup
func runSetup() {
	log := logger.Get()
	reader := bufio.NewReader(os.Stdin)
	fmt.Println("\n=== Meridian Setup Wizard ===")

	fmt.Println("\nDatabase Configuration:")
	dbHost := prompt(reader, "  DB Host", "localhost")
	dbPort := prompt(reader, "  DB Port", "5432")
	dbUser := prompt(reader, "  DB User", "meridian")
	dbPassword := promptPassword(reader, "  DB Password")
	dbName := prompt(reader, "  DB Name", "meridian")

	os.Setenv("DB_HOST", dbHost)
	os.Setenv("DB_PORT", dbPort)
	os.Setenv("DB_USER", dbUser)
	os.Setenv("DB_PASSWORD", dbPassword)
	os.Setenv("DB_NAME", dbName)

	fmt.Println("\nConnecting to database...")
	db := connectDB()
	fmt.Println("Connected!")

	fmt.Println("Running migrations...")
	if err := database.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	fmt.Println("Migrations complete!")

	configSvc := config.NewService(db)
	if err := configSvc.SetupDefaultConfig(); err != nil {
		log.Fatal().Err(err).Msg("default config setup failed")
	}

	fmt.Println("\nAdmin User:")
	adminEmail := prompt(reader, "  Email", "admin@meridianfc.example")
	adminPassword := promptPassword(reader, "  Password")
	adminFirst := prompt(reader, "  First Name", "Admin")
	adminLast := prompt(reader, "  Last Name", "User")

	var superAdmin models.Role
	if err := db.Where("level = 0 AND is_system = true").First(&superAdmin).Error; err != nil {
		log.Fatal().Err(err).Msg("super admin role missing, run migrations first")
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}
	user := models.User{
		Email:        adminEmail,
		PasswordHash: hash,
		FirstName:    adminFirst,
		LastName:     adminLast,
		RoleID:       &superAdmin.ID,
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to create user")
	}
	fmt.Printf("Admin user '%s' created!\n", adminEmail)

	fmt.Println("\nServer Configuration:")
	port := prompt(reader, "  Port", "8090")

	fmt.Println("\n=== Setup Complete ===")
	fmt.Println("\nAdd these to your systemd service or docker-compose:")
	fmt.Println("----------------------------------------")
	fmt.Printf("DB_HOST=%s\n", dbHost)
	fmt.Printf("DB_PORT=%s\n", dbPort)
	fmt.Printf("DB_USER=%s\n", dbUser)
	fmt.Printf("DB_PASSWORD=%s\n", dbPassword)
	fmt.Printf("DB_NAME=%s\n", dbName)
	fmt.Printf("MERIDIAN_JWT_SECRET=%s\n", config.GenerateJWTSecret())
	fmt.Printf("MERIDIAN_SERVER_PORT=%s\n", port)
	fmt.Println("----------------------------------------")
	fmt.Printf("\nStart server: meridian serve\n")
	fmt.Printf("Login: %s / [your password]\n", adminEmail)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("%s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func promptPassword(reader *bufio.Reader, label string) string {
	fmt.Printf("%s: ", label)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
