package config

import (
	"errors"
	"os"

	"libradesk/internal/adapters/persistence/models"
	"libradesk/internal/pkg/password"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	cfg *Config
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	return &Seeder{db: db, cfg: cfg}
}

// Run executes all seeders
func (s *Seeder) Run() error {
	log.Info().Msg("🌱 Running database seeders...")

	if err := s.seedAdminUser(); err != nil {
		log.Warn().Err(err).Msg("⚠️ Admin seeder skipped")
	}

	if s.cfg.IsDev() {
		if err := s.seedSampleCatalog(); err != nil {
			log.Warn().Err(err).Msg("⚠️ Catalog seeder skipped")
		}
	}

	log.Info().Msg("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the first admin. Production requires ADMIN_INITIAL_PASSWORD.
func (s *Seeder) seedAdminUser() error {
	var count int64
	if err := s.db.Model(&models.User{}).Where("role = ?", "ADMIN").Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	initial := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if initial == "" {
		if s.cfg.IsProd() {
			log.Warn().Msg("⚠️ No admin account and ADMIN_INITIAL_PASSWORD is not set")
			return nil
		}
		initial = "admin123456"
	}
	if !password.ValidatePassword(initial) {
		return errors.New("ADMIN_INITIAL_PASSWORD is too weak")
	}

	hashedPassword, err := password.Hash(initial)
	if err != nil {
		return err
	}

	admin := &models.User{
		Username: "admin",
		Email:    getEnv("ADMIN_EMAIL", "admin@library.example.org"),
		FullName: "Library Administrator",
		Password: hashedPassword,
		Role:     "ADMIN",
		IsActive: true,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Info().Msgf("✅ Admin user created: %s", admin.Username)
	return nil
}

// seedSampleCatalog fills an empty catalog with a few books for local development
func (s *Seeder) seedSampleCatalog() error {
	var count int64
	if err := s.db.Model(&models.Book{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	books := []models.Book{
		{ISBN: "9780262033848", Title: "Introduction to Algorithms", Author: "Cormen, Leiserson, Rivest, Stein", Genre: "Computing", PublishedYear: 2009, Branch: "Main", CopiesTotal: 3, CopiesAvailable: 3},
		{ISBN: "9780262510875", Title: "Structure and Interpretation of Computer Programs", Author: "Abelson, Sussman", Genre: "Computing", PublishedYear: 1996, Branch: "Main", CopiesTotal: 2, CopiesAvailable: 2},
		{ISBN: "9780441013593", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965, Branch: "East", CopiesTotal: 4, CopiesAvailable: 4},
		{ISBN: "9780141439518", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Classics", PublishedYear: 1813, Branch: "East", CopiesTotal: 2, CopiesAvailable: 2},
		{ISBN: "9780306406157", Title: "Atlas of World Rivers", Author: "Unknown", Genre: "Geography", PublishedYear: 1985, Branch: "Main", CopiesTotal: 1, CopiesAvailable: 1},
	}
	if err := s.db.Create(&books).Error; err != nil {
		return err
	}

	log.Info().Int("books", len(books)).Msg("📚 Sample catalog seeded")
	return nil
}
