package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SeveN7Igor7/studioivosantos/config"
	"github.com/SeveN7Igor7/studioivosantos/internal/bootstrap"
	"github.com/SeveN7Igor7/studioivosantos/internal/logging"
)

func testOpener(t *testing.T) opener {
	mr := miniredis.RunT(t)
	return func(ctx context.Context, _ string) (*bootstrap.App, error) {
		cfg, err := config.Parse([]byte("redis: {addr: " + mr.Addr() + "}\nshop: {timezone: UTC}\n"))
		if err != nil {
			return nil, err
		}
		return bootstrap.Build(ctx, cfg, logging.Discard())
	}
}

func execute(t *testing.T, open opener, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(open)
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return out.String()
}

func futureSaturday() time.Time {
	d := time.Now().UTC().AddDate(0, 0, 7)
	for d.Weekday() != time.Saturday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func TestDaysCommands(t *testing.T) {
	open := testOpener(t)
	day := futureSaturday().Format("2006-01-02")

	assert.Equal(t, day+" disabled=true\n", execute(t, open, "days", "disable", day))
	assert.Equal(t, day+"\n", execute(t, open, "days", "list"))
	assert.Contains(t, execute(t, open, "slots", day), "unavailable (day_disabled)")

	execute(t, open, "days", "enable", day)
	assert.Empty(t, execute(t, open, "days", "list"))
}

func TestSlotsCommand(t *testing.T) {
	open := testOpener(t)
	day := futureSaturday().Format("2006-01-02")

	out := execute(t, open, "slots", day, "--service", "haircut,beard")

	assert.Contains(t, out, day+" (60 min): 09:00 09:30 10:00")
	assert.NotContains(t, out, "12:00")
	assert.Contains(t, out, "16:00\n")
	assert.NotContains(t, out, "16:30")
}

func TestServicesCommands(t *testing.T) {
	open := testOpener(t)

	assert.Equal(t, "seeded 8 services\n", execute(t, open, "services", "seed"))
	assert.Equal(t, "seeded 0 services\n", execute(t, open, "services", "seed"))

	out := execute(t, open, "services", "list")
	assert.Contains(t, out, "haircut")
	assert.Contains(t, out, "Carbonoplastia")
}

func TestAppointmentsUnknownID(t *testing.T) {
	root := newRootCommand(testOpener(t))
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"appointments", "cancel", "nope"})

	assert.Error(t, root.Execute())
}
