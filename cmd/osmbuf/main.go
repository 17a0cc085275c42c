// Command osmbuf is a minimal driver over the osm package: it reads a
// file in one OSM dialect and, for the convert subcommand, writes it
// back out in another.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/osmbuf/osmbuf/osmbuf"
	"github.com/osmbuf/osmbuf/osm"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: osmbuf <read|convert> <args...>")
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "read":
		err = cmdRead(args[1:])
	case "convert":
		err = cmdConvert(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n", args[0])
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func cmdRead(args []string) error {
	fs := flag.NewFlagSet("read", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: osmbuf read <file>")
	}
	path := fs.Arg(0)

	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	f := osm.DefaultFile()
	f.Format = osm.DetectFormat(path)
	if f.Format == osm.FormatUnknown {
		return fmt.Errorf("%s: unrecognized format suffix", path)
	}

	r, err := osm.NewReader(in, f)
	if err != nil {
		return err
	}
	defer r.Close()

	var nodes, ways, relations, blocks int
	for {
		buf, err := r.Next()
		if err != nil {
			return err
		}
		if buf == nil {
			break
		}
		blocks++
		it := buf.Objects()
		for item, ok := it.Next(); ok; item, ok = it.Next() {
			switch item.Tag() {
			case osmbuf.TagNode:
				nodes++
			case osmbuf.TagWay:
				ways++
			case osmbuf.TagRelation:
				relations++
			}
		}
	}
	log.Printf("%s: %d blocks, %d nodes, %d ways, %d relations", path, blocks, nodes, ways, relations)
	return nil
}

func cmdConvert(args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 2 {
		return fmt.Errorf("usage: osmbuf convert <in-file> <out-file>")
	}
	inPath, outPath := fs.Arg(0), fs.Arg(1)

	in, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	inFile := osm.DefaultFile()
	inFile.Format = osm.DetectFormat(inPath)
	if inFile.Format == osm.FormatUnknown {
		return fmt.Errorf("%s: unrecognized format suffix", inPath)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	outFile := osm.DefaultFile()
	outFile.Format = osm.DetectFormat(outPath)
	if outFile.Format == osm.FormatUnknown {
		return fmt.Errorf("%s: unrecognized format suffix", outPath)
	}

	r, err := osm.NewReader(in, inFile)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := osm.NewWriter(out, outFile)
	if err != nil {
		return err
	}

	var blocks int
	for {
		buf, err := r.Next()
		if err != nil {
			return err
		}
		if buf == nil {
			break
		}
		if err := w.WriteBuffer(buf); err != nil {
			return err
		}
		blocks++
	}
	if err := w.Close(); err != nil {
		return err
	}
	log.Printf("%s -> %s: %d blocks converted", inPath, outPath, blocks)
	return nil
}
