package amber

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type logInfo struct {
	path    string
	content string
}

var (
	tuiApp         *tview.Application
	tuiLogs        []logInfo
	tuiActiveIdx   int
	tuiPrevIdx     int
	tuiHeaderBox   *tview.TextView
	tuiLogView     *tview.TextView
	tuiFooterBox   *tview.TextView
	tuiUpdateChan  chan []logInfo
	tuiPrevContent map[string]string
	tuiFollow      bool // force scroll to end on next update
)

// runLogViewer opens a live viewer over logs/<component>.log files.
func runLogViewer() int {
	tuiUpdateChan = make(chan []logInfo, 10)
	tuiPrevContent = make(map[string]string)
	tuiPrevIdx = -1

	tuiApp = tview.NewApplication()

	tuiHeaderBox = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignLeft)
	tuiHeaderBox.SetBorder(true)
	tuiHeaderBox.SetTitle("amberinstall Build Log Viewer")

	tuiLogView = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetScrollable(true).
		SetChangedFunc(func() {
			tuiApp.Draw()
		})
	tuiLogView.SetBorder(true)

	tuiFooterBox = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetTextAlign(tview.AlignLeft)
	tuiFooterBox.SetBorder(true)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tuiHeaderBox, 3, 0, false).
		AddItem(tuiLogView, 0, 1, true).
		AddItem(tuiFooterBox, 3, 0, false)

	flex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlQ, tcell.KeyEsc:
			tuiApp.Stop()
			return nil
		case tcell.KeyLeft:
			switchLog(-1)
			return nil
		case tcell.KeyRight:
			switchLog(1)
			return nil
		case tcell.KeyHome:
			tuiLogView.ScrollToBeginning()
			return nil
		case tcell.KeyEnd:
			tuiLogView.ScrollToEnd()
			return nil
		case tcell.KeyUp:
			row, _ := tuiLogView.GetScrollOffset()
			if row > 0 {
				tuiLogView.ScrollTo(row-1, 0)
			}
			return nil
		case tcell.KeyDown:
			row, _ := tuiLogView.GetScrollOffset()
			tuiLogView.ScrollTo(row+1, 0)
			return nil
		case tcell.KeyPgUp:
			row, _ := tuiLogView.GetScrollOffset()
			if row > 10 {
				tuiLogView.ScrollTo(row-10, 0)
			} else {
				tuiLogView.ScrollToBeginning()
			}
			return nil
		case tcell.KeyPgDn:
			row, _ := tuiLogView.GetScrollOffset()
			tuiLogView.ScrollTo(row+10, 0)
			return nil
		case tcell.KeyRune:
			switch event.Rune() {
			case 'q':
				tuiApp.Stop()
				return nil
			case 'h':
				switchLog(-1)
				return nil
			case 'l':
				switchLog(1)
				return nil
			}
		}
		return event
	})

	// Poll the log files
	go func() {
		ticker := time.NewTicker(400 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			logs := readComponentLogs()
			select {
			case tuiUpdateChan <- logs:
			default:
			}
		}
	}()

	// Apply updates on the UI goroutine
	go func() {
		for logs := range tuiUpdateChan {
			var currentLogPath string
			if tuiActiveIdx < len(tuiLogs) {
				currentLogPath = tuiLogs[tuiActiveIdx].path
			}

			tuiLogs = logs

			if currentLogPath != "" {
				found := false
				for i, l := range tuiLogs {
					if l.path == currentLogPath {
						tuiActiveIdx = i
						found = true
						break
					}
				}
				if !found && tuiActiveIdx >= len(tuiLogs) && len(tuiLogs) > 0 {
					tuiActiveIdx = len(tuiLogs) - 1
				}
			}

			tuiApp.QueueUpdateDraw(func() {
				updateLogViewer()
			})
		}
	}()

	tuiApp.SetRoot(flex, true).SetFocus(tuiLogView)

	tuiLogs = readComponentLogs()
	if len(tuiLogs) > 0 {
		tuiActiveIdx = 0
	}
	updateLogViewer()

	if err := tuiApp.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "log viewer:", err)
		return 1
	}
	return 0
}

func switchLog(dir int) {
	if len(tuiLogs) == 0 {
		return
	}
	tuiActiveIdx += dir
	if tuiActiveIdx < 0 {
		tuiActiveIdx = len(tuiLogs) - 1
	}
	if tuiActiveIdx >= len(tuiLogs) {
		tuiActiveIdx = 0
	}
	tuiFollow = true
	updateLogViewer()
}

func updateLogViewer() {
	if tuiApp == nil || tuiHeaderBox == nil || tuiLogView == nil || tuiFooterBox == nil {
		return
	}

	if len(tuiLogs) == 0 {
		tuiHeaderBox.SetText("[gray]No build logs found[white]")
		tuiLogView.SetText("No build log yet. Run an install to see logs here.")
	} else if tuiActiveIdx < len(tuiLogs) {
		l := tuiLogs[tuiActiveIdx]
		tuiHeaderBox.SetText(fmt.Sprintf("[gray]Build Log %d/%d: %s[white]", tuiActiveIdx+1, len(tuiLogs), l.path))

		prevContent, hadPrevContent := tuiPrevContent[l.path]
		switchedTabs := tuiPrevIdx != tuiActiveIdx
		if switchedTabs {
			tuiPrevIdx = tuiActiveIdx
		}

		if l.content != prevContent || switchedTabs {
			row, _ := tuiLogView.GetScrollOffset()

			wasAtBottom := false
			if !switchedTabs && hadPrevContent {
				tuiLogView.ScrollTo(row+1, 0)
				newRow, _ := tuiLogView.GetScrollOffset()
				wasAtBottom = newRow == row
				tuiLogView.ScrollTo(row, 0)
			}

			tuiLogView.Clear()
			ansiWriter := tview.ANSIWriter(tuiLogView)
			ansiWriter.Write([]byte(l.content))

			switch {
			case switchedTabs || tuiFollow:
				tuiLogView.ScrollToEnd()
				tuiFollow = false
			case wasAtBottom:
				tuiLogView.ScrollToEnd()
			case hadPrevContent:
				prevLines := strings.Count(prevContent, "\n")
				newLines := strings.Count(l.content, "\n")
				if newLines > prevLines {
					tuiLogView.ScrollTo(row+newLines-prevLines, 0)
				} else {
					tuiLogView.ScrollTo(row, 0)
				}
			}

			tuiPrevContent[l.path] = l.content
		}
	}

	tuiFooterBox.SetText("[gray]Press 'q' or Ctrl+Q to quit | ← → (or h/l) to switch logs | ↑ ↓ to scroll | Home/End to jump[white]")
}

func readComponentLogs() []logInfo {
	paths, _ := filepath.Glob(filepath.Join(logsDir, "*.log"))
	if len(paths) == 0 {
		return nil
	}

	// Newest first
	sort.Slice(paths, func(i, j int) bool {
		ai, err1 := os.Stat(paths[i])
		aj, err2 := os.Stat(paths[j])
		if err1 != nil || err2 != nil {
			return paths[i] > paths[j]
		}
		return ai.ModTime().After(aj.ModTime())
	})

	logs := make([]logInfo, 0, len(paths))
	for _, path := range paths {
		b, err := os.ReadFile(path)
		content := string(b)
		if err != nil {
			content = fmt.Sprintf("failed to read log: %v", err)
		}
		logs = append(logs, logInfo{path: path, content: content})
	}
	return logs
}
