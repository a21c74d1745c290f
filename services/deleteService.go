package services

import (
	"context"
	"fmt"
	"log"

	"github.com/CryOutNow/initializers"
	"github.com/CryOutNow/models"
	"github.com/doug-martin/goqu/v9"
	"golang.org/x/sync/errgroup"
)

// Steps reported by DeletePrayerRequest.
const (
	DeleteStepAtomic = "atomic"
	DeleteStepManual = "manual"
	DeleteStepSoft   = "soft"
)

// DeletePrayerRequest removes one of the user's own requests, degrading
// through three strategies because delete permissions on the managed backend
// may vary: an atomic server-side routine, manual deletion of dependent rows
// followed by the parent, and finally a soft delete that overwrites the
// content with a sentinel and flips the request private. Each step runs only
// if the previous one failed; the first success ends the chain. Returns the
// step that succeeded.
func DeletePrayerRequest(ctx context.Context, userID, requestID string) (string, error) {
	_, err := initializers.DB.ExecContext(ctx,
		"SELECT delete_prayer_request($1, $2)", requestID, userID)
	if err == nil {
		return DeleteStepAtomic, nil
	}
	log.Printf("atomic delete of request %s failed, trying manual: %v", requestID, err)

	if err := deleteWithDependents(ctx, userID, requestID); err == nil {
		return DeleteStepManual, nil
	} else {
		log.Printf("manual delete of request %s failed, soft deleting: %v", requestID, err)
	}

	update := initializers.DB.Update("prayer_requests").
		Set(goqu.Record{
			"content":   models.DeletedContent,
			"is_public": false,
		}).
		Where(goqu.Ex{"id": requestID, "user_id": userID}).
		Executor()
	res, err := update.ExecContext(ctx)
	if err != nil {
		return "", err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", fmt.Errorf("prayer request %s not found or not owned by user", requestID)
	}
	return DeleteStepSoft, nil
}

// deleteWithDependents clears interactions and comments, then the parent
// row. The parent delete is scoped to the owning user; zero affected rows
// counts as failure so the chain can fall through to the soft delete.
func deleteWithDependents(ctx context.Context, userID, requestID string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, table := range []string{"prayer_interactions", "comments"} {
		table := table
		g.Go(func() error {
			_, err := initializers.DB.Delete(table).
				Where(goqu.Ex{"prayer_request_id": requestID}).
				Executor().ExecContext(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res, err := initializers.DB.Delete("prayer_requests").
		Where(goqu.Ex{"id": requestID, "user_id": userID}).
		Executor().ExecContext(ctx)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("parent row not deleted")
	}
	return nil
}
