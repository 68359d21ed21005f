// Command sdam is a line-oriented REPL front-end for the dictation engine.
// It is the one executable this repository ships; a GUI or
// language-binding front-end is explicitly out of scope.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"sdam/engine"
	"sdam/internal/config"
)

func main() {
	filePath := flag.String("file", "", "session file to open at startup")
	inputDevice := flag.Int("input-device", -1, "input device index (-1 = system default)")
	outputDevice := flag.Int("output-device", -1, "output device index (-1 = system default)")
	flag.Parse()

	cfg := config.Load()
	if *inputDevice == -1 {
		*inputDevice = cfg.InputDeviceID
	}
	if *outputDevice == -1 {
		*outputDevice = cfg.OutputDeviceID
	}

	e, err := engine.NewEngine(*outputDevice, engine.WithInputDevice(*inputDevice))
	if err != nil {
		log.Fatalf("sdam: %v", err)
	}
	defer e.Close()

	if cfg.DefaultRate > 0 {
		e.SetRate(cfg.DefaultRate)
	}

	startPath := *filePath
	if startPath == "" {
		startPath = cfg.LastSession
	}
	if startPath != "" {
		if err := e.Load(startPath); err != nil {
			fmt.Fprintf(os.Stderr, "sdam: load %s: %v\n", startPath, err)
		}
	}

	runREPL(e, cfg)
}

// forwardBackwardStepSec is the fixed step used by the bare forward/backward
// verbs.
const forwardBackwardStepSec = 5

func runREPL(e *engine.Engine, cfg config.Config) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		verb := fields[0]
		rest := fields[1:]

		switch {
		case verb == "record" && len(rest) == 1 && (rest[0] == "start" || rest[0] == "r"):
			e.StartRecording()
		case verb == "record" && len(rest) == 1 && (rest[0] == "stop" || rest[0] == "rs"):
			e.StopRecording()
		case verb == "play" || verb == "p":
			e.Play()
		case verb == "toggle" || verb == "t":
			e.Toggle()
		case verb == "forward" || verb == "f":
			e.Forward(forwardBackwardStepSec)
		case verb == "backward" || verb == "b":
			e.Backward(forwardBackwardStepSec)
		case verb == "quit" || verb == "q":
			persistLastSession(e, cfg)
			return
		case strings.HasPrefix(verb, "rate=") || strings.HasPrefix(verb, "r="):
			if rate, ok := parseRateVerb(verb); ok {
				e.SetRate(rate)
			}
		case verb == "save":
			handleSave(e, rest)
		case verb == "load" && len(rest) == 1:
			if err := e.Load(rest[0]); err != nil {
				fmt.Fprintf(os.Stderr, "load: %v\n", err)
			}
		case verb == "mark" && len(rest) >= 1:
			handleMark(e, rest)
		case verb == "marks":
			handleMarks(e)
		case verb == "delete-mark" && len(rest) == 1:
			handleDeleteMark(e, rest[0])
		default:
			// Unknown lines are ignored.
		}
	}
}

func parseRateVerb(verb string) (float64, bool) {
	eq := strings.IndexByte(verb, '=')
	if eq < 0 {
		return 0, false
	}
	rate, err := strconv.ParseFloat(verb[eq+1:], 64)
	if err != nil {
		return 0, false
	}
	return rate, true
}

func handleSave(e *engine.Engine, rest []string) {
	var path *string
	if len(rest) >= 1 {
		path = &rest[0]
	}
	if err := e.Save(path); err != nil {
		fmt.Fprintf(os.Stderr, "save: %v\n", err)
	}
}

func handleMark(e *engine.Engine, rest []string) {
	category, err := strconv.ParseUint(rest[0], 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mark: invalid category %q\n", rest[0])
		return
	}
	var label *string
	if len(rest) > 1 {
		l := strings.Join(rest[1:], " ")
		label = &l
	}
	pos := e.CurrentPosition()
	offset := uint64(0)
	if pos != nil {
		offset = *pos
	}
	m, err := e.AddMark(engine.Mark{FrameOffset: offset, Category: category, Label: label})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mark: %v\n", err)
		return
	}
	fmt.Printf("mark %d added at frame %d\n", *m.ID, m.FrameOffset)
}

func handleMarks(e *engine.Engine) {
	for _, m := range e.Marks() {
		label := ""
		if m.Label != nil {
			label = *m.Label
		}
		fmt.Printf("%d\t%d\t%d\t%s\n", *m.ID, m.FrameOffset, m.Category, label)
	}
}

func handleDeleteMark(e *engine.Engine, idStr string) {
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "delete-mark: invalid id %q\n", idStr)
		return
	}
	if !e.DeleteMark(id) {
		fmt.Fprintf(os.Stderr, "delete-mark: no such mark %d\n", id)
	}
}

func persistLastSession(e *engine.Engine, cfg config.Config) {
	if path := e.FilePath(); path != nil {
		cfg.LastSession = *path
	}
	if err := config.Save(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "sdam: save preferences: %v\n", err)
	}
}
