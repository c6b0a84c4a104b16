package gateway

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bigshabei/dogdiary/internal/bus"
	"github.com/bigshabei/dogdiary/internal/channel"
	"github.com/bigshabei/dogdiary/internal/config"
	"github.com/bigshabei/dogdiary/internal/diary"
	"github.com/bigshabei/dogdiary/internal/llm"
	"github.com/bigshabei/dogdiary/internal/schedule"
)

const defaultBufSize = 100

// Options for creating a Gateway
type Options struct {
	LLM        llm.Client     // injected for testing
	SignalChan chan os.Signal // for testing signal handling
	Now        func() time.Time
}

type Gateway struct {
	cfg        *config.Config
	bus        *bus.MessageBus
	store      *diary.Store
	diary      *diary.Service
	channels   *channel.Manager
	sched      *schedule.Service
	signalChan chan os.Signal
	now        func() time.Time
}

// New creates a Gateway with default options
func New(cfg *config.Config) (*Gateway, error) {
	return NewWithOptions(cfg, Options{})
}

// NewWithOptions creates a Gateway with custom options for testing
func NewWithOptions(cfg *config.Config, opts Options) (*Gateway, error) {
	g := &Gateway{
		cfg:        cfg,
		signalChan: opts.SignalChan,
		now:        opts.Now,
	}
	if g.now == nil {
		g.now = time.Now
	}

	g.bus = bus.NewMessageBus(defaultBufSize)

	client := opts.LLM
	if client == nil {
		var err error
		client, err = llm.NewClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("create llm client: %w", err)
		}
	}

	g.store = diary.NewStore(cfg.Diary.DataDir)
	g.diary = diary.NewService(g.store, client, cfg.Diary)

	chMgr, err := channel.NewManager(cfg.Channels, cfg.Diary, g.bus)
	if err != nil {
		return nil, fmt.Errorf("create channel manager: %w", err)
	}
	g.channels = chMgr

	g.sched = schedule.NewService()
	if err := g.sched.AddDaily("generate", cfg.Diary.AutoGenerateTime, g.generateJob); err != nil {
		return nil, err
	}
	if err := g.sched.AddDaily("send", cfg.Diary.AutoSendTime, g.sendJob); err != nil {
		return nil, err
	}

	return g, nil
}

func (g *Gateway) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go g.bus.DispatchOutbound(ctx)

	if err := g.channels.StartAll(ctx); err != nil {
		return fmt.Errorf("start channels: %w", err)
	}
	log.Printf("[gateway] channels started: %v", g.channels.EnabledChannels())

	g.sched.Start(ctx)

	go g.processLoop(ctx)

	log.Printf("[gateway] running, generation at %s, broadcast at %s",
		g.cfg.Diary.AutoGenerateTime, g.cfg.Diary.AutoSendTime)

	// Use injected signal channel for testing, or create default
	sigCh := g.signalChan
	if sigCh == nil {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	}
	<-sigCh

	log.Printf("[gateway] shutting down...")
	return g.Shutdown()
}

func (g *Gateway) Shutdown() error {
	g.sched.Stop()
	_ = g.channels.StopAll()
	log.Printf("[gateway] shutdown complete")
	return nil
}

func (g *Gateway) processLoop(ctx context.Context) {
	for {
		select {
		case msg := <-g.bus.Inbound:
			log.Printf("[gateway] inbound %s from %s: %s", msg.SessionKey(), msg.SenderID, truncate(msg.Content, 80))
			reply := g.HandleCommand(msg.Content)
			if reply == "" {
				continue
			}
			g.bus.Outbound <- bus.OutboundMessage{
				Channel: msg.Channel,
				ChatID:  msg.ChatID,
				Content: reply,
			}
		case <-ctx.Done():
			return
		}
	}
}

// generateJob creates today's entry if it does not exist yet. Runs on the
// auto-generate schedule.
func (g *Gateway) generateJob() error {
	now := g.now()
	today := now.Format(diary.DateLayout)
	if _, ok := g.diary.EntryFor(today); ok {
		log.Printf("[gateway] diary for %s already exists, skipping auto generation", today)
		return nil
	}
	if _, _, err := g.diary.Today(now); err != nil {
		return fmt.Errorf("auto generate: %w", err)
	}
	log.Printf("[gateway] auto generated diary for %s", today)
	return nil
}

// sendJob broadcasts today's entry to the configured destinations, at most
// once per calendar day. Runs on the auto-send schedule.
func (g *Gateway) sendJob() error {
	now := g.now()
	today := now.Format(diary.DateLayout)

	state := g.store.LoadSendState()
	if state.LastSentDate == today {
		log.Printf("[gateway] diary for %s already sent, skipping", today)
		return nil
	}

	entry, ok := g.diary.EntryFor(today)
	if !ok {
		log.Printf("[gateway] no diary for %s yet, nothing to send", today)
		return nil
	}
	if len(g.cfg.Diary.Destinations) == 0 {
		return nil
	}

	content := fmt.Sprintf("【Dog Diary - %s】\n%s", entry.Time, entry.Content)
	sent, lastAddr := g.channels.Broadcast(g.cfg.Diary.Destinations, content)
	if sent == 0 {
		return fmt.Errorf("broadcast: no destination reachable")
	}

	state.LastSentDate = today
	state.LastAddress = lastAddr
	g.store.SaveSendState(state)
	log.Printf("[gateway] diary for %s sent to %d/%d destinations", today, sent, len(g.cfg.Diary.Destinations))
	return nil
}

// HandleCommand routes a chat message to a diary operation. Unrecognized
// messages return "" and are ignored; failures always come back as a
// human-readable reply, never as silence.
func (g *Gateway) HandleCommand(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 || fields[0] != "/diary" {
		return ""
	}
	sub := ""
	if len(fields) > 1 {
		sub = fields[1]
	}
	now := g.now()

	switch sub {
	case "":
		entry, existed, err := g.diary.Today(now)
		if err != nil {
			log.Printf("[gateway] today command: %v", err)
			return "Could not generate today's diary, please retry later."
		}
		header := "Today's dog diary"
		if existed {
			return formatEntry(header, entry, false)
		}
		return formatEntry(header, entry, true)
	case "temp":
		entry, err := g.diary.Ephemeral(now)
		if err != nil {
			log.Printf("[gateway] temp command: %v", err)
			return "Could not generate a temporary diary, please retry later."
		}
		return formatEntry("Temporary dog diary", entry, true)
	case "rewrite":
		entry, err := g.diary.Rewrite(now)
		if err != nil {
			log.Printf("[gateway] rewrite command: %v", err)
			return "Could not rewrite today's diary, please retry later."
		}
		return formatEntry("Rewritten dog diary", entry, true)
	case "list":
		filter := ""
		if len(fields) > 2 {
			filter = fields[2]
		}
		lines := g.diary.List(filter)
		if len(lines) == 0 {
			return "No diary entries yet."
		}
		return "【Dog Diary List】\n" + strings.Join(lines, "\n")
	case "help":
		return g.helpText()
	default:
		return g.helpText()
	}
}

func formatEntry(header string, entry diary.Entry, withScore bool) string {
	msg := fmt.Sprintf("【%s - %s】\n%s", header, entry.Time, entry.Content)
	if withScore && entry.EmotionScore > 0 {
		msg += fmt.Sprintf("\n(emotion %d/10)", entry.EmotionScore)
	}
	return msg
}

func (g *Gateway) helpText() string {
	return fmt.Sprintf(`【Dog Diary Help】
A daily dog diary generator that forgets the way human memory does.

Commands:
- /diary : show or generate today's diary
- /diary temp : generate a diary from history without saving it
- /diary list [YYYY-MM] : list diary dates and weather
- /diary rewrite : rewrite today's diary, overwriting it
- /diary help : show this help

Diaries are generated daily at %s and sent at %s.`,
		g.cfg.Diary.AutoGenerateTime, g.cfg.Diary.AutoSendTime)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
