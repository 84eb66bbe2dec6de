package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ten/addon"
	"github.com/teranos/ten/app"
	"github.com/teranos/ten/logger"
)

var (
	runConfigPath string
	runWatch      bool
)

// RunCmd loads a config and runs the App it describes until closed (spec
// §6 "CLI surface"). Exit codes follow the spec exactly: 0 clean
// shutdown, 2 config error, 3 listener bind error, 1 otherwise.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Load a graph config and run the App until it's closed",
	RunE: func(cmd *cobra.Command, args []string) error {
		os.Exit(runLoop(runConfigPath, runWatch))
		return nil
	},
}

func init() {
	RunCmd.Flags().StringVar(&runConfigPath, "config", "ten.json", "Path to the App configuration file")
	RunCmd.Flags().BoolVar(&runWatch, "watch", false, "Restart the App when the config file changes")
}

// runLoop runs successive App instances, restarting on a config-file
// change when --watch is set, and returns the process exit code of the
// instance that stopped for a reason other than a reload.
func runLoop(configPath string, watch bool) int {
	for {
		code, reload := runOnce(configPath, watch)
		if !reload {
			return code
		}
	}
}

func runOnce(configPath string, watch bool) (code int, reload bool) {
	lg := logger.New(logger.NewConsoleHandler(logger.LevelInfo))
	a := app.New(addon.NewRegistry(), lg, nil)

	if err := a.Configure(configPath); err != nil {
		pterm.Error.Printf("tenrun: config error: %s\n", err)
		return 2, false
	}
	if err := a.Listen(); err != nil {
		pterm.Error.Printf("tenrun: listener error: %s\n", err)
		return 3, false
	}
	pterm.Success.Printf("tenrun: listening on %s\n", a.URI())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var watcher *fsnotify.Watcher
	reloadCh := make(chan struct{}, 1)
	if watch {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			pterm.Warning.Printf("tenrun: --watch disabled: %s\n", err)
		} else if err := w.Add(configPath); err != nil {
			pterm.Warning.Printf("tenrun: --watch disabled: %s\n", err)
			_ = w.Close()
		} else {
			watcher = w
			go watchConfig(w, reloadCh)
		}
	}
	if watcher != nil {
		defer watcher.Close()
	}

	outcome := make(chan bool, 1)
	go func() {
		select {
		case <-sigCh:
			outcome <- false
		case <-reloadCh:
			pterm.Info.Println("tenrun: config changed, reloading")
			outcome <- true
		}
		a.Close()
	}()

	exit := a.Run(context.Background())
	select {
	case reload = <-outcome:
	default:
	}
	return exit, reload
}

// watchConfig forwards fsnotify write/create events on the watched config
// file to reloadCh, coalescing bursts into a single pending reload.
func watchConfig(w *fsnotify.Watcher, reloadCh chan<- struct{}) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			}
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}
