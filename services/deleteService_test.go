package services

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestDeleteUsesAtomicRoutineFirst(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()

	mock.ExpectExec("delete_prayer_request").
		WillReturnResult(sqlmock.NewResult(0, 1))

	step, err := DeletePrayerRequest(context.Background(), testUserID, testReqID)

	assert.NoError(t, err)
	assert.Equal(t, DeleteStepAtomic, step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFallsBackToManual(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()
	// Dependent rows are cleared concurrently.
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("delete_prayer_request").
		WillReturnError(errors.New("function does not exist"))
	mock.ExpectExec(`DELETE FROM "prayer_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM "comments"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "prayer_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	step, err := DeletePrayerRequest(context.Background(), testUserID, testReqID)

	assert.NoError(t, err)
	assert.Equal(t, DeleteStepManual, step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFallsBackToSoftDelete(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("delete_prayer_request").
		WillReturnError(errors.New("function does not exist"))
	mock.ExpectExec(`DELETE FROM "prayer_interactions"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "comments"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// Parent delete refused: zero rows touched.
	mock.ExpectExec(`DELETE FROM "prayer_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`UPDATE "prayer_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	step, err := DeletePrayerRequest(context.Background(), testUserID, testReqID)

	assert.NoError(t, err)
	assert.Equal(t, DeleteStepSoft, step)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFailsWhenEveryStepFails(t *testing.T) {
	_, mock, cleanup := setupTestDB(t)
	defer cleanup()
	mock.MatchExpectationsInOrder(false)

	mock.ExpectExec("delete_prayer_request").
		WillReturnError(errors.New("function does not exist"))
	mock.ExpectExec(`DELETE FROM "prayer_interactions"`).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectExec(`DELETE FROM "comments"`).
		WillReturnError(errors.New("permission denied"))
	mock.ExpectExec(`UPDATE "prayer_requests"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := DeletePrayerRequest(context.Background(), testUserID, testReqID)

	assert.Error(t, err)
}
