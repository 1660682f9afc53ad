package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// fileMsg carries new input file content, or the error reading it.
type fileMsg struct {
	path    string
	content string
	err     error
}

// watchFile reports changes to path until ctx is done. The parent directory
// is watched so editors that replace the file on save keep working.
func watchFile(ctx context.Context, path string) (<-chan fileMsg, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch input file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch input file: %w", err)
	}

	ch := make(chan fileMsg)
	go func() {
		defer close(ch)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				data, err := os.ReadFile(path)
				msg := fileMsg{path: path, content: string(data), err: err}
				select {
				case ch <- msg:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case ch <- fileMsg{path: path, err: err}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// waitForFile blocks on the next change. A closed channel ends the loop.
func waitForFile(ch <-chan fileMsg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}
