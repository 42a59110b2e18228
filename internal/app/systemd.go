package app

import (
	"context"
	"time"

	sysd "github.com/coreos/go-systemd/v22/daemon"

	"aqwidget/pkg/logx"
)

// notifyReady tells the service manager the daemon is up. Outside systemd
// (no NOTIFY_SOCKET) this is a no-op.
func (a *App) notifyReady() {
	if ok, err := sysd.SdNotify(false, sysd.SdNotifyReady); err != nil {
		a.log.Warn("sd_notify failed", logx.Err(err))
	} else if ok {
		a.log.Debug("sd_notify: ready")
	}
}

func (a *App) notifyStopping() {
	_, _ = sysd.SdNotify(false, sysd.SdNotifyStopping)
}

// startWatchdog pings the systemd watchdog at half the configured interval
// when WatchdogSec is set on the unit.
func (a *App) startWatchdog(ctx context.Context) {
	interval, err := sysd.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		t := time.NewTicker(interval / 2)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				_, _ = sysd.SdNotify(false, sysd.SdNotifyWatchdog)
			}
		}
	}()
}
