package sync_service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carima-SSY/AWS-Client/internal/adapters/repositories/jsonfile"
	"github.com/Carima-SSY/AWS-Client/internal/config"
	"github.com/Carima-SSY/AWS-Client/internal/domain/entities"
	"github.com/Carima-SSY/AWS-Client/internal/domain/models"
	"github.com/Carima-SSY/AWS-Client/internal/middleware/logging"
	"github.com/Carima-SSY/AWS-Client/internal/services/devicelog"
	"github.com/Carima-SSY/AWS-Client/internal/services/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusFixture struct {
	cfg       *config.AppConfig
	repo      *jsonfile.Repository
	telemetry *fakeTelemetry
	loop      *StatusLoop
}

func newStatusFixture(t *testing.T, tune func(*config.AppConfig)) *statusFixture {
	t.Helper()
	cfg := newTestConfig(t)
	if tune != nil {
		tune(cfg)
	}
	repo := newTestRepository(t, cfg)
	tel := &fakeTelemetry{fail: map[string]error{}}
	machine := history.NewMachine(history.Config{
		DeviceType:   cfg.Device.Type,
		DeviceNumber: cfg.Device.Number,
	}, repo.State, repo.History, repo.Mailboxes.PrintHistory, logging.Nop())
	writer := devicelog.NewWriter(cfg, repo.Mailboxes, logging.Nop())

	return &statusFixture{
		cfg:       cfg,
		repo:      repo,
		telemetry: tel,
		loop:      NewStatusLoop(cfg, repo.State, tel, machine, writer, logging.Nop()),
	}
}

func (f *statusFixture) setState(t *testing.T, state entities.DeviceState) {
	t.Helper()
	st := entities.DefaultDeviceStatus()
	st.Status = state
	require.NoError(t, f.repo.State.SetDeviceStatus(st))
}

func TestStatusLoop_PublishesSnapshotAndStorageEveryN(t *testing.T) {
	f := newStatusFixture(t, func(c *config.AppConfig) { c.Loops.ArchiveEveryTicks = 2 })
	ctx := context.Background()

	require.NoError(t, f.loop.Tick(ctx))
	require.NoError(t, f.loop.Tick(ctx))
	require.NoError(t, f.loop.Tick(ctx))

	all := f.telemetry.byAction(models.ActionAllStatus)
	var browser, storage int
	for _, p := range all {
		switch p.target[0] {
		case models.TargetBrowser:
			browser++
		case models.TargetStorage:
			storage++
		}
	}
	assert.Equal(t, 3, browser)
	assert.Equal(t, 1, storage)

	snap, ok := all[0].data.(models.AllStatus)
	require.True(t, ok)
	assert.Equal(t, entities.StateOffline, snap.Device.Status)
}

func TestStatusLoop_ArchivesFinishedJob(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()

	f.setState(t, entities.StatePrinting)
	require.NoError(t, f.loop.Tick(ctx))
	current, err := f.repo.History.Current()
	require.NoError(t, err)
	require.NotNil(t, current)

	f.setState(t, entities.StatePrintingFinish)
	require.NoError(t, f.loop.Tick(ctx))

	histories := f.telemetry.byAction(models.ActionPrintHistory)
	require.Len(t, histories, 1)
	rec := histories[0].data.(entities.PrintHistory)
	assert.Equal(t, current.Name, rec.Name)
	assert.Equal(t, string(entities.StatePrintingFinish), rec.Database.Result)

	queued, err := f.repo.Mailboxes.PrintHistory.Drain()
	require.NoError(t, err)
	assert.Equal(t, []string{rec.FileName()}, queued)

	// повторный тик в терминальном статусе ничего не архивирует
	require.NoError(t, f.loop.Tick(ctx))
	assert.Len(t, f.telemetry.byAction(models.ActionPrintHistory), 1)
}

func TestStatusLoop_AlarmClearedOnlyAfterPublish(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()
	alarm := entities.DeviceAlarm{Subject: "Resin low", Content: "Refill tank", CreatedDate: "2024:01:02:03:04:05"}
	require.NoError(t, f.repo.State.SetDeviceAlarm(alarm))

	f.telemetry.fail[models.ActionDeviceAlarm] = errors.New("mqtt offline")
	assert.Error(t, f.loop.Tick(ctx))
	stored, err := f.repo.State.GetDeviceAlarm()
	require.NoError(t, err)
	assert.Equal(t, alarm, stored)

	delete(f.telemetry.fail, models.ActionDeviceAlarm)
	require.NoError(t, f.loop.Tick(ctx))
	require.Len(t, f.telemetry.byAction(models.ActionDeviceAlarm), 1)
	stored, err = f.repo.State.GetDeviceAlarm()
	require.NoError(t, err)
	assert.False(t, stored.Active())
}

func TestStatusLoop_ConfigPublishedOnChange(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.loop.Tick(ctx))
	require.NoError(t, f.loop.Tick(ctx))
	assert.Len(t, f.telemetry.byAction(models.ActionDeviceConfig), 1)

	cfg := entities.DefaultDeviceConfig()
	cfg.AppVersion = "2.4.1"
	require.NoError(t, f.repo.State.SetDeviceConfig(cfg))
	require.NoError(t, f.loop.Tick(ctx))

	sent := f.telemetry.byAction(models.ActionDeviceConfig)
	require.Len(t, sent, 2)
	assert.Equal(t, "2.4.1", sent[1].data.(entities.DeviceConfig).AppVersion)
}

func TestStatusLoop_ConfigRetriedAfterFailedPublish(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()

	f.telemetry.fail[models.ActionDeviceConfig] = errors.New("timeout")
	assert.Error(t, f.loop.Tick(ctx))
	delete(f.telemetry.fail, models.ActionDeviceConfig)
	require.NoError(t, f.loop.Tick(ctx))
	assert.Len(t, f.telemetry.byAction(models.ActionDeviceConfig), 1)
}

func TestStatusLoop_RotatesDeviceLog(t *testing.T) {
	f := newStatusFixture(t, func(c *config.AppConfig) { c.Loops.LogRotateTicks = 2 })
	ctx := context.Background()

	require.NoError(t, f.loop.Tick(ctx))
	queued, err := f.repo.Mailboxes.DeviceLog.Drain()
	require.NoError(t, err)
	assert.Empty(t, queued)

	require.NoError(t, f.loop.Tick(ctx))
	queued, err = f.repo.Mailboxes.DeviceLog.Drain()
	require.NoError(t, err)
	require.Len(t, queued, 1)
	assert.Regexp(t, `^DM400-7-\d+\.json$`, queued[0])
}

func TestStatusLoop_CorruptRecordKeepsStaleState(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()

	ps := entities.DefaultPrintStatus()
	ps.User = "operator"
	ps.RemainingTime = 120
	require.NoError(t, f.repo.State.SetPrintStatus(ps))
	require.NoError(t, f.loop.Tick(ctx))

	corrupt := []byte(`{"user":"operator","remaining-time":12.5}`)
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.StateDir, "print-status.json"), corrupt, 0o644))
	alarm := entities.DeviceAlarm{Subject: "Door open", Content: "Close the lid", CreatedDate: "2024:01:02:03:04:05"}
	require.NoError(t, f.repo.State.SetDeviceAlarm(alarm))

	err := f.loop.Tick(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "print-status")

	// тревога пересылается и сбрасывается несмотря на битую запись
	require.Len(t, f.telemetry.byAction(models.ActionDeviceAlarm), 1)
	stored, err := f.repo.State.GetDeviceAlarm()
	require.NoError(t, err)
	assert.False(t, stored.Active())

	all := f.telemetry.byAction(models.ActionAllStatus)
	require.Len(t, all, 2)
	snap := all[1].data.(models.AllStatus)
	assert.Equal(t, 120, snap.Print.RemainingTime)
	assert.Equal(t, "operator", snap.Print.User)
}

func TestStatusLoop_CorruptDeviceStatusSkipsHistory(t *testing.T) {
	f := newStatusFixture(t, nil)
	ctx := context.Background()

	f.setState(t, entities.StatePrinting)
	require.NoError(t, f.loop.Tick(ctx))
	started, err := f.repo.History.Current()
	require.NoError(t, err)
	require.NotNil(t, started)

	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.Paths.StateDir, "device-status.json"), []byte(`{"status":`), 0o644))
	assert.Error(t, f.loop.Tick(ctx))

	current, err := f.repo.History.Current()
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, started.Name, current.Name)
	assert.Empty(t, f.telemetry.byAction(models.ActionPrintHistory))

	all := f.telemetry.byAction(models.ActionAllStatus)
	assert.Equal(t, entities.StatePrinting, all[len(all)-1].data.(models.AllStatus).Device.Status)
}
