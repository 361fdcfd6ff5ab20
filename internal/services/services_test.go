package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wadtheplanet/wadtheplanet/internal/models"
	"github.com/wadtheplanet/wadtheplanet/internal/naming"
	"github.com/wadtheplanet/wadtheplanet/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testStack wires the services against an in-memory database and a temp-dir
// blob store.
type testStack struct {
	db      *gorm.DB
	users   *UserService
	systems *SystemService
	planets *PlanetService
	scores  *ScoreService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to create test database")

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.SolarSystem{},
		&models.Planet{},
		&models.Comment{},
	), "failed to migrate test database")

	blobs, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	names := naming.NewValidator(naming.DefaultReserved())

	return &testStack{
		db:      db,
		users:   &UserService{DB: db, Names: names, Blobs: blobs},
		systems: &SystemService{DB: db, Names: names, Blobs: blobs},
		planets: &PlanetService{DB: db, Names: names, Blobs: blobs},
		scores:  &ScoreService{DB: db},
	}
}

func (s *testStack) mustUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := s.users.Register(username, username+"@mail.com", "password1234")
	require.NoError(t, err)
	return user
}

func (s *testStack) mustSystem(t *testing.T, owner *models.User, name string) *models.SolarSystem {
	t.Helper()
	system, err := s.systems.Create(owner.ID, name, "", true)
	require.NoError(t, err)
	return system
}

func (s *testStack) mustPlanet(t *testing.T, owner *models.User, system *models.SolarSystem, name string) *models.Planet {
	t.Helper()
	planet, err := s.planets.Create(owner.ID, system.ID, name, true)
	require.NoError(t, err)
	return planet
}

func (s *testStack) planetScore(t *testing.T, planetID uint) int {
	t.Helper()
	var planet models.Planet
	require.NoError(t, s.db.First(&planet, planetID).Error)
	return planet.Score
}

func (s *testStack) systemScore(t *testing.T, systemID uint) int {
	t.Helper()
	var system models.SolarSystem
	require.NoError(t, s.db.First(&system, systemID).Error)
	return system.Score
}

func (s *testStack) commentCount(t *testing.T, planetID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, s.db.Model(&models.Comment{}).Where("planet_id = ?", planetID).Count(&count).Error)
	return count
}
