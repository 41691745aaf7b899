package setting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/go-oidc-login/go-oidc-login/internal/db/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	// Migrate the schema
	err = db.AutoMigrate(&models.Setting{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestGet(t *testing.T) {
	testCases := []struct {
		name          string
		nilDB         bool
		settingName   string
		seedData      []models.Setting
		expectedError error
		expectedValue []byte
	}{
		{
			name:          "nil database",
			nilDB:         true,
			settingName:   "test",
			expectedError: ErrDBNil,
		},
		{
			name:          "empty name",
			settingName:   "",
			expectedError: ErrSettingNameEmpty,
		},
		{
			name:          "setting not found",
			settingName:   "nonexistent",
			expectedError: ErrSettingNotFound,
		},
		{
			name:        "successful get",
			settingName: "site_name",
			seedData: []models.Setting{
				{Name: "site_name", Value: []byte("My Site")},
			},
			expectedValue: []byte("My Site"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var db *gorm.DB
			if !tc.nilDB {
				db = setupTestDB(t)
				for _, s := range tc.seedData {
					require.NoError(t, db.Create(&s).Error, "failed to seed test data")
				}
			}

			got, err := Get(db, tc.settingName)

			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedValue, got.Value)
		})
	}
}

func TestSet(t *testing.T) {
	db := setupTestDB(t)

	// create
	created, err := Set(db, "providers", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":1}`), created.Value)

	// update
	updated, err := Set(db, "providers", []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), updated.Value)
	assert.Equal(t, created.ID, updated.ID, "update must not create a second row")

	// read back
	got, err := Get(db, "providers")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"a":2}`), got.Value)

	// guard rails
	_, err = Set(nil, "providers", nil)
	require.ErrorIs(t, err, ErrDBNil)

	_, err = Set(db, "", nil)
	require.ErrorIs(t, err, ErrSettingNameEmpty)
}

func TestDeleteByName(t *testing.T) {
	db := setupTestDB(t)

	_, err := Set(db, "doomed", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, DeleteByName(db, "doomed"))

	_, err = Get(db, "doomed")
	require.ErrorIs(t, err, ErrSettingNotFound)

	// deleting again reports not found
	require.ErrorIs(t, DeleteByName(db, "doomed"), ErrSettingNotFound)

	require.ErrorIs(t, DeleteByName(nil, "x"), ErrDBNil)
	require.ErrorIs(t, DeleteByName(db, ""), ErrSettingNameEmpty)
}
