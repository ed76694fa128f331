package power

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"scribeq/internal/logging"
)

// SupplyMonitor listens for udev power_supply events and reports AC adapter
// transitions, letting the daemon pause a run when the machine drops to
// battery power.
type SupplyMonitor struct {
	logger    *slog.Logger
	onBattery func(ctx context.Context)
	onAC      func(ctx context.Context)

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewSupplyMonitor creates a monitor invoking the given callbacks on power
// source transitions.
func NewSupplyMonitor(logger *slog.Logger, onBattery, onAC func(ctx context.Context)) *SupplyMonitor {
	return &SupplyMonitor{
		logger:    logging.NewComponentLogger(logger, "power-monitor"),
		onBattery: onBattery,
		onAC:      onAC,
	}
}

// Start begins listening for udev power_supply events. Connection failures
// are logged and non-fatal; runs simply proceed without battery awareness.
func (m *SupplyMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket, battery pause unavailable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "power_monitor_connect_failed"),
			logging.String(logging.FieldImpact, "runs will not pause on battery power"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("power supply monitor started",
		logging.String(logging.FieldEventType, "power_monitor_started"))
	return nil
}

// Stop shuts down the monitor.
func (m *SupplyMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false

	m.logger.Info("power supply monitor stopped",
		logging.String(logging.FieldEventType, "power_monitor_stopped"))
}

// Running reports whether the monitor is active.
func (m *SupplyMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *SupplyMonitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	events := make(chan netlink.UEvent)
	errs := make(chan error)

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(events, errs, m.buildMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-events:
			m.handleEvent(ctx, uevent)
		case err := <-errs:
			m.logger.Warn("power monitor error",
				logging.Error(err),
				logging.String(logging.FieldEventType, "power_monitor_error"))
		}
	}
}

// buildMatcher matches mains adapter state changes:
// SUBSYSTEM=power_supply, POWER_SUPPLY_TYPE=Mains, ACTION=change
func (m *SupplyMonitor) buildMatcher() netlink.Matcher {
	action := "change"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":         "power_supply",
			"POWER_SUPPLY_TYPE": "Mains",
		},
	})
	return rules
}

func (m *SupplyMonitor) handleEvent(ctx context.Context, uevent netlink.UEvent) {
	online := strings.TrimSpace(uevent.Env["POWER_SUPPLY_ONLINE"])
	switch online {
	case "0":
		m.logger.Info("AC power lost",
			logging.String(logging.FieldEventType, "power_on_battery"))
		if m.onBattery != nil {
			m.onBattery(ctx)
		}
	case "1":
		m.logger.Info("AC power restored",
			logging.String(logging.FieldEventType, "power_on_ac"))
		if m.onAC != nil {
			m.onAC(ctx)
		}
	default:
		m.logger.Debug("ignoring power event without online state",
			logging.String("kobj", uevent.KObj))
	}
}
