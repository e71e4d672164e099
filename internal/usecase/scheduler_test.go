package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"petsnapshot/internal/domain"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerRunsPipelineForTriggerDay(t *testing.T) {
	t.Parallel()

	h := newHarness(map[domain.ResourceKind][]step{
		domain.KindAnimals: {{records: []domain.RawRecord{record(t, `{"id":1,"organization_id":"ORG1"}`)}}},
	})
	h.writer.On("WriteSnapshot", mock.Anything, mock.Anything).Return(nil)

	driver := &manualDriver{}
	sched := NewScheduler(driver, h.pipeline, nil)
	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	trigger := time.Date(2025, time.May, 5, 6, 0, 0, 0, time.UTC)
	driver.job(trigger)

	snapshot := h.writer.snapshot(t)
	assert.True(t, trigger.Equal(snapshot.Date))
	assert.Equal(t, []domain.ResourceKind{domain.KindAnimals, domain.KindOrganizations}, h.source.calls)

	require.NoError(t, sched.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(nil, nil, nil)
	assert.NoError(t, sched.Start(context.Background()))
	assert.NoError(t, sched.Stop(context.Background()))
}
