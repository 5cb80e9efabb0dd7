package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"sargambook/imnb"
	"sargambook/sargam"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/pkg/browser"
)

// dumpTempo converts beats to wall time for the -dumpCell summary; the
// parser itself has no tempo, this is display only.
const dumpTempo = 120

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

var (
	listen  string
	root    string
	doDebug bool
	doOpen  bool
)

func main() {
	dumpCell := flag.String("dumpCell", "", "parse the given .imnb file, print an event summary, and exit")
	flag.StringVar(&listen, "listen", "127.0.0.1:8000", "address for the notebook API server")
	flag.StringVar(&root, "root", ".", "directory searched for .imnb files")
	flag.BoolVar(&doDebug, "debug", false, "verbose/debug logging")
	flag.BoolVar(&doOpen, "open", false, "open the editor URL in a browser after startup")
	flag.Parse()

	setupLogging(doDebug)

	if *dumpCell != "" {
		if err := runDumpCell(*dumpCell); err != nil {
			logError("dump %s: %v", *dumpCell, err)
			os.Exit(1)
		}
		return
	}

	srv := newAPIServer(root)
	logError("serving notebook API on http://%s (root %s)", listen, root)
	if doOpen {
		go func() {
			if err := browser.OpenURL("http://" + listen + "/health"); err != nil {
				logWarn("open browser: %v", err)
			}
		}()
	}
	if err := http.ListenAndServe(listen, srv.router()); err != nil {
		logError("serve: %v", err)
		os.Exit(1)
	}
}

// runDumpCell prints a per-voice summary of every music cell in a
// notebook, in the spirit of a tune dump: counts, first tokens, and a
// humanized play length at a nominal tempo.
func runDumpCell(path string) error {
	if st, err := os.Stat(path); err == nil {
		fmt.Printf("%s (%s)\n", path, humanize.Bytes(uint64(st.Size())))
	}
	nb, err := imnb.Load(path)
	if err != nil {
		return err
	}
	cells := nb.ParseMusic()
	for i, cell := range cells {
		if cell == nil {
			continue
		}
		fmt.Printf("cell %d: %d directives, %d voices\n", i, len(cell.Directives), cell.Voices.Len())
		for _, v := range cell.Voices.All() {
			beats := voiceBeats(v)
			d := time.Duration(beats * float64(time.Minute) / dumpTempo)
			fmt.Printf("  voice %-12s %3d events, %g beats (%s at %d BPM)\n",
				v.Name, len(v.Events), beats,
				durafmt.Parse(d).LimitFirstN(2).Format(shortUnits), dumpTempo)
			for j, ev := range v.Events {
				if j >= 8 {
					fmt.Printf("    ...\n")
					break
				}
				fmt.Printf("    %02d line=%d %s\n", j, ev.Line(), sargam.EncodeToken(ev))
			}
		}
	}
	return nil
}

// voiceBeats sums the time-occupying durations of a voice. Holds extend
// the previous note but still occupy beats; bars are zero-width.
func voiceBeats(v *sargam.Voice) float64 {
	total := 0.0
	for _, ev := range v.Events {
		switch e := ev.(type) {
		case *sargam.NoteEvent:
			total += e.Duration
		case *sargam.RestEvent:
			total += e.Duration
		case *sargam.HoldEvent:
			total += e.Duration
		}
	}
	return total
}
