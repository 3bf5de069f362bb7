package cmd

import (
	"context"
	"fmt"

	"github.com/thorbis/fieldsync/internal/bridge"
	"github.com/thorbis/fieldsync/internal/config"
	"github.com/thorbis/fieldsync/internal/db"
	"github.com/thorbis/fieldsync/internal/syncclient"
	"github.com/thorbis/fieldsync/internal/syncer"
)

// openManager wires the local database, bridge, sync client, and
// orchestrator together for a CLI invocation. The returned cleanup
// stops the manager and closes the bridge (which owns the database).
func openManager(ctx context.Context) (*syncer.Manager, func(), error) {
	database, err := db.Open(getBaseDir())
	if err != nil {
		return nil, nil, err
	}
	br := bridge.New(database)

	dev, err := config.LoadDevice()
	if err != nil {
		br.Close()
		return nil, nil, fmt.Errorf("load device identity: %w", err)
	}

	client := syncclient.New(config.ServerURL(), config.APIKey(), dev.DeviceID)

	opts := []syncer.Option{
		syncer.WithDeviceID(dev.DeviceID),
		syncer.WithOrganization(config.OrganizationID()),
		syncer.WithBatchSize(config.BatchSize()),
	}
	if config.AutoSyncEnabled() {
		opts = append(opts, syncer.WithProbeInterval(config.ProbeInterval()))
	}

	m := syncer.New(br, client, opts...)
	if err := m.Start(ctx); err != nil {
		br.Close()
		return nil, nil, err
	}

	cleanup := func() {
		m.Close()
		br.Close()
	}
	return m, cleanup, nil
}
