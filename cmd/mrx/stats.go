package main

import (
	"flag"
	"fmt"
	"os"
)

func runStats() {
	cfg := loadConfig()

	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	wide, chat := inputFlags(fs, cfg)
	perSegment := fs.Bool("segments", false, "Include a per-segment breakdown")
	fs.Parse(os.Args[1:])

	exp, rep := buildFromFlags(cfg, *wide, *chat)
	c := countGraph(exp)

	fmt.Printf("Sessions:       %d\n", c.sessions)
	fmt.Printf("Segments:       %d\n", c.segments)
	fmt.Printf("Rounds:         %d\n", c.rounds)
	fmt.Printf("Periods:        %d\n", c.periods)
	fmt.Printf("Observations:   %d\n", c.observations)
	fmt.Printf("Groups:         %d\n", c.groups)
	fmt.Printf("Sold events:    %d\n", c.sells)
	fmt.Printf("Chat messages:  %d attached, %d dropped\n", c.chat, rep.DroppedTotal())

	if !*perSegment {
		return
	}

	for _, s := range exp.Sessions() {
		fmt.Printf("\nsession %s\n", s.Code)
		for _, name := range s.SegmentNames() {
			seg := s.Segment(name)
			rounds := seg.Rounds()
			chat := 0
			for _, r := range rounds {
				chat += len(r.Chat)
			}
			fmt.Printf("  %-20s %d rounds, %d groups, %d chat\n",
				name, len(rounds), len(seg.Groups()), chat)
			for _, g := range seg.Groups() {
				fmt.Printf("    group %d: %v\n", g.ID, g.Members())
			}
		}
	}
}
