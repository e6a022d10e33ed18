package bot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"justbot/events"
	"justbot/models"
)

// stubGuildConfigService records config lookups; the returned config has no
// log channel so postLogNotice stops before touching the session.
type stubGuildConfigService struct {
	lookups chan int64
}

func (s *stubGuildConfigService) GetConfig(ctx context.Context, guildID int64) (*models.GuildConfig, error) {
	s.lookups <- guildID
	return models.NewGuildConfig(guildID, "test guild"), nil
}

func (s *stubGuildConfigService) EnsureConfig(ctx context.Context, guildID int64, guildName string) error {
	return nil
}

func (s *stubGuildConfigService) UpdateConfig(ctx context.Context, config *models.GuildConfig) error {
	return nil
}

func (s *stubGuildConfigService) IsCommandEnabled(ctx context.Context, guildID int64, commandName string) (bool, error) {
	return true, nil
}

func (s *stubGuildConfigService) SetCommandEnabled(ctx context.Context, guildID int64, commandName string, enabled bool) error {
	return nil
}

func (s *stubGuildConfigService) ListCommandStates(ctx context.Context, guildID int64) ([]*models.CommandState, error) {
	return nil, nil
}

func TestLogNoticeSubscriberReceivesFlushedEvents(t *testing.T) {
	stub := &stubGuildConfigService{lookups: make(chan int64, 1)}
	b := &Bot{services: Services{GuildConfig: stub}}

	bus := events.NewBus()
	b.subscribeLogNotices(bus)

	reviewer := int64(42)
	bus.Emit(context.Background(), events.VehicleDecidedEvent{
		RegistrationID: 7,
		GuildID:        1234,
		DiscordID:      100,
		VehicleName:    "truck",
		Status:         models.VehicleStatusApproved,
		ReviewerID:     &reviewer,
	})

	select {
	case guildID := <-stub.lookups:
		assert.Equal(t, int64(1234), guildID)
	case <-time.After(2 * time.Second):
		t.Fatal("log notice handler was not invoked")
	}
}

func TestVehicleDecidedNotice(t *testing.T) {
	reviewer := int64(42)

	approved := vehicleDecidedNotice(events.VehicleDecidedEvent{
		RegistrationID: 7,
		DiscordID:      100,
		VehicleName:    "truck",
		Status:         models.VehicleStatusApproved,
		ReviewerID:     &reviewer,
	})
	assert.Contains(t, approved, "#7")
	assert.Contains(t, approved, "승인")
	assert.Contains(t, approved, "<@100>")
	assert.Contains(t, approved, "<@42>")

	timedOut := vehicleDecidedNotice(events.VehicleDecidedEvent{
		RegistrationID: 8,
		DiscordID:      100,
		VehicleName:    "boat",
		Status:         models.VehicleStatusTimedOut,
	})
	assert.Contains(t, timedOut, "기한 만료")
	assert.NotContains(t, timedOut, "담당자")

	assert.Empty(t, vehicleDecidedNotice(events.VehicleDecidedEvent{
		Status: models.VehicleStatusPending,
	}))
}

func TestWarningAndTicketNotices(t *testing.T) {
	warn := warningIssuedNotice(events.WarningIssuedEvent{
		DiscordID:  100,
		TotalCount: 3,
		Threshold:  5,
	})
	assert.Contains(t, warn, "<@100>")
	assert.Contains(t, warn, "3 / 5")

	closed := ticketClosedNotice(events.TicketClosedEvent{TicketID: 9, ClosedBy: 200})
	assert.Contains(t, closed, "#9")
	assert.Contains(t, closed, "<@200>")
}
