// Package main provides the nnet CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/nnet/internal/nn"
	"github.com/born-ml/nnet/internal/serialization"
)

const version = "v0.1.0"

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "version":
		fmt.Printf("nnet %s (format v%d)\n", version, serialization.FormatVersion)
	case "inspect":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		err = inspect(args[1])
	case "predict":
		if len(args) != 3 {
			usage()
			os.Exit(2)
		}
		err = predict(args[1], args[2])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "nnet: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "nnet - per-sample SGD neural networks")
	fmt.Fprintf(os.Stderr, "Version: %s\n\n", version)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version                     Show version")
	fmt.Fprintln(os.Stderr, "  inspect <model>             Print architecture and checkpoint info")
	fmt.Fprintln(os.Stderr, "  predict <model> <v1,v2,..>  Run one input through a model")
}

func inspect(path string) error {
	f, err := serialization.ReadFile(path, serialization.DefaultReaderOptions())
	if err != nil {
		return err
	}
	net, info, err := nn.Decode(f)
	if err != nil {
		return err
	}

	fmt.Printf("File:       %s\n", path)
	fmt.Printf("Format:     v%d (written by %s)\n", f.Header.FormatVersion, f.Header.Version)
	fmt.Printf("Created:    %s\n", f.Header.CreatedAt)
	fmt.Printf("Checksum:   %x\n", f.Checksum)
	fmt.Printf("Input:      %d\n", net.InputSize())
	fmt.Printf("Output:     %d\n", net.OutputSize())
	fmt.Println(net)

	total := 0
	fmt.Println("Parameters:")
	for _, p := range net.Params() {
		fmt.Printf("  %-20s %v\n", p.Name, p.Shape)
		total += len(p.Data)
	}
	fmt.Printf("  total: %d\n", total)

	if info != nil {
		fmt.Println("Checkpoint:")
		fmt.Printf("  epoch:         %d\n", info.Epoch)
		fmt.Printf("  loss:          %.6f\n", info.Loss)
		fmt.Printf("  learning rate: %g\n", info.LearningRate)
		fmt.Printf("  workers:       %d\n", info.Workers)
		for k, v := range info.Metadata {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
	return nil
}

func predict(path, values string) error {
	net, err := nn.LoadFile(path)
	if err != nil {
		return err
	}
	input, err := parseVector(values)
	if err != nil {
		return err
	}
	out, err := net.Predict(input)
	if err != nil {
		return err
	}

	best := 0
	for i, v := range out {
		if v > out[best] {
			best = i
		}
		fmt.Printf("%d: %.6f\n", i, v)
	}
	fmt.Printf("argmax: %d\n", best)
	return nil
}

// parseVector parses comma-separated floats.
func parseVector(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	out := make([]float64, 0, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
