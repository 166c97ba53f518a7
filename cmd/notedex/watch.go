package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/4thel00z/notedex/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(
	uc func() *internal.AppendUseCase,
	cfg func() *internal.Config,
	scope func() internal.Scope,
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the data directory and append new notes",
		Long:  `Watch the data directory for new or changed .txt files and append them to the index.`,
		Args:  cobra.NoArgs,
		RunE:  makeWatchRunner(uc, cfg, scope),
	}

	cmd.Flags().Duration("debounce", 0, "Debounce window for batching changes (default from config)")
	cmd.Flags().String("data-dir", "", "Directory to watch (default from config)")
	return cmd
}

func makeWatchRunner(
	uc func() *internal.AppendUseCase,
	cfg func() *internal.Config,
	scope func() internal.Scope,
) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		conf := cfg()

		debounce := conf.Watch.Debounce
		if d, _ := cmd.Flags().GetDuration("debounce"); d > 0 {
			debounce = d
		}
		dataDir := conf.ResolveDataDir(scope())
		if d, _ := cmd.Flags().GetString("data-dir"); d != "" {
			dataDir = d
		}

		if info, err := os.Stat(dataDir); err != nil || !info.IsDir() {
			return fmt.Errorf("%w: %s", internal.ErrDirectoryNotFound, dataDir)
		}

		ignore, err := internal.NewIgnoreMatcher(dataDir)
		if err != nil {
			return fmt.Errorf("read ignore file: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(dataDir); err != nil {
			return fmt.Errorf("watch %s: %w", dataDir, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for new notes...\n", dataDir)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := make(map[string]struct{})

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if shouldIgnoreEvent(event, ignore) {
					continue
				}
				if len(pending) == 0 {
					timer.Reset(debounce)
				}
				pending[filepath.Clean(event.Name)] = struct{}{}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
			case <-timer.C:
				// One file at a time so a vanished file does not block the rest.
				for _, path := range drainPending(pending) {
					out, appendErr := uc().Execute(cmd.Context(), internal.AppendInput{
						Paths:        []string{path},
						SkipExisting: true,
					})
					if appendErr != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "append error: %v\n", appendErr)
						continue
					}
					printAppendResults(cmd, out, false)
				}
			}
		}
	}
}

// shouldIgnoreEvent keeps creates and writes of ingestible files only.
func shouldIgnoreEvent(event fsnotify.Event, ignore *internal.IgnoreMatcher) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return true
	}
	if !internal.IsDocumentFile(event.Name) {
		return true
	}
	if ignore.Match(event.Name) {
		return true
	}
	info, err := os.Stat(event.Name)
	return err != nil || !info.Mode().IsRegular()
}

func drainPending(pending map[string]struct{}) []string {
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
		delete(pending, p)
	}
	sort.Strings(paths)
	return paths
}
