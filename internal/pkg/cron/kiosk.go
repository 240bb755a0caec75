package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/presensia/presensia-backend-go/internal/config"
	"github.com/presensia/presensia-backend-go/internal/domain/kiosk"
)

// NewKioskRetentionJob returns the job that removes completed and failed
// pairing sessions past the retention window. Pending sessions are never
// touched; abandoned ones become terminal through the pairing timeout on
// the phone side or stay claimable until then.
func NewKioskRetentionJob(sessions kiosk.SessionRepository, cfg config.KioskConfig) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-cfg.SessionRetention)

		removed, err := sessions.DeleteTerminalBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete terminal sessions: %w", err)
		}

		if removed > 0 {
			slog.Info("kiosk session retention sweep", "removed", removed, "cutoff", cutoff)
		}
		return nil
	}
}
