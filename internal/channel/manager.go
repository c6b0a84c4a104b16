package channel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bigshabei/dogdiary/internal/bus"
	"github.com/bigshabei/dogdiary/internal/config"
)

// destinationDelay spaces broadcast sends to respect outbound rate limits.
const destinationDelay = 500 * time.Millisecond

type Manager struct {
	channels map[string]Channel
	bus      *bus.MessageBus
	delay    time.Duration
}

func NewManager(cfg config.ChannelsConfig, diaryCfg config.DiaryConfig, b *bus.MessageBus) (*Manager, error) {
	m := &Manager{
		channels: make(map[string]Channel),
		bus:      b,
		delay:    destinationDelay,
	}

	if cfg.Telegram.Enabled {
		ch, err := NewTelegramChannel(cfg.Telegram, diaryCfg.ForwardThreshold, b)
		if err != nil {
			return nil, fmt.Errorf("init telegram channel: %w", err)
		}
		m.Register(ch)
	}

	return m, nil
}

// Register adds a channel and subscribes it to outbound bus traffic.
func (m *Manager) Register(ch Channel) {
	m.channels[ch.Name()] = ch
	m.bus.SubscribeOutbound(ch.Name(), func(msg bus.OutboundMessage) {
		if err := ch.Send(msg); err != nil {
			log.Printf("[channel-mgr] send to %s failed: %v", ch.Name(), err)
		}
	})
}

func (m *Manager) StartAll(ctx context.Context) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(m.channels))

	for name, ch := range m.channels {
		wg.Add(1)
		go func(name string, ch Channel) {
			defer wg.Done()
			log.Printf("[channel-mgr] starting %s", name)
			if err := ch.Start(ctx); err != nil {
				errCh <- fmt.Errorf("%s: %w", name, err)
			}
		}(name, ch)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

func (m *Manager) StopAll() error {
	for name, ch := range m.channels {
		log.Printf("[channel-mgr] stopping %s", name)
		if err := ch.Stop(); err != nil {
			log.Printf("[channel-mgr] error stopping %s: %v", name, err)
		}
	}
	return nil
}

func (m *Manager) EnabledChannels() []string {
	names := make([]string, 0, len(m.channels))
	for name := range m.channels {
		names = append(names, name)
	}
	return names
}

// Broadcast delivers content to every destination in order, with a fixed
// delay between sends. A destination is "channel:chatID"; a bare chat ID
// goes to telegram. A failed destination never aborts the rest. Returns the
// number delivered and the last destination that accepted the message.
func (m *Manager) Broadcast(destinations []string, content string) (int, string) {
	sent := 0
	lastAddr := ""
	for i, dest := range destinations {
		if i > 0 && m.delay > 0 {
			time.Sleep(m.delay)
		}
		channelName, chatID := splitDestination(dest)
		ch, ok := m.channels[channelName]
		if !ok {
			log.Printf("[channel-mgr] unknown channel in destination %q", dest)
			continue
		}
		err := ch.Send(bus.OutboundMessage{
			Channel: channelName,
			ChatID:  chatID,
			Content: content,
		})
		if err != nil {
			log.Printf("[channel-mgr] broadcast to %s failed: %v", dest, err)
			continue
		}
		sent++
		lastAddr = dest
	}
	return sent, lastAddr
}

func splitDestination(dest string) (string, string) {
	if i := strings.Index(dest, ":"); i > 0 {
		return dest[:i], dest[i+1:]
	}
	return telegramChannelName, dest
}
