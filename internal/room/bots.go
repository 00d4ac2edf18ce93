package room

import (
	"fmt"
	"os/exec"
	"strconv"
	"time"

	chlog "github.com/nonfamousd/copperhead-server/internal/log"
	"github.com/nonfamousd/copperhead-server/internal/metrics"
)

// ExecLauncher starts copperbot binaries pointed at this server. It is
// wired into the manager as its SpawnFunc.
type ExecLauncher struct {
	Binary    string // path to the copperbot binary
	ServerURL string // ws:// or wss:// base URL the bot should dial
}

// Launch starts one bot process at the given difficulty.
func (l ExecLauncher) Launch(difficulty int) (BotHandle, error) {
	cmd := exec.Command(l.Binary,
		"--server", l.ServerURL,
		"--difficulty", strconv.Itoa(difficulty),
		"--quiet",
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start copperbot: %w", err)
	}
	metrics.BotsSpawnedTotal.Inc()
	log := chlog.WithComponent("bots")
	log.Info().
		Str("event", "bot.launch").
		Int("pid", cmd.Process.Pid).
		Int("difficulty", difficulty).
		Msg("copperbot process started")
	return &botProcess{cmd: cmd}, nil
}

type botProcess struct {
	cmd *exec.Cmd
}

// Stop terminates the bot process, waiting briefly for it to exit.
func (b *botProcess) Stop() {
	if b.cmd.Process == nil {
		return
	}
	_ = b.cmd.Process.Kill()

	done := make(chan struct{})
	go func() {
		_ = b.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
