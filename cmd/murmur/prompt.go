package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"murmur/internal/models"
)

var errNotInteractive = errors.New("stdin is not a terminal")

func isTerminal(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptInputs reads one path per line until an empty line or EOF.
func promptInputs(in io.Reader, out io.Writer) ([]string, error) {
	if !isTerminal(in) {
		return nil, errNotInteractive
	}
	fmt.Fprintln(out, "Enter media files to transcribe, one per line (empty line to finish):")
	scanner := bufio.NewScanner(in)
	var inputs []string
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.Trim(strings.TrimSpace(scanner.Text()), `"'`)
		if line == "" {
			break
		}
		inputs = append(inputs, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input files: %w", err)
	}
	return inputs, nil
}

// promptModel lists the catalog and returns the chosen model ID.
func promptModel(in io.Reader, out io.Writer, catalog *models.Catalog) (string, error) {
	if !isTerminal(in) {
		return "", errNotInteractive
	}
	entries := catalog.Models()
	if len(entries) == 0 {
		return "", errors.New("model catalog is empty")
	}
	fmt.Fprintln(out, "Select a model:")
	for i, desc := range entries {
		marker := " "
		if desc.Exists {
			marker = "*"
		}
		fmt.Fprintf(out, "  %2d) %s %-16s %-8s %s\n", i+1, marker, desc.ID, desc.SizeLabel, desc.Description)
	}
	fmt.Fprintln(out, "  (* already downloaded)")

	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Model number or name: ")
		line, err := reader.ReadString('\n')
		choice := strings.TrimSpace(line)
		if choice != "" {
			if n, convErr := strconv.Atoi(choice); convErr == nil {
				if n >= 1 && n <= len(entries) {
					return entries[n-1].ID, nil
				}
			} else if desc, ok := catalog.Lookup(choice); ok {
				return desc.ID, nil
			}
			fmt.Fprintf(out, "Unknown choice %q\n", choice)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", errors.New("no model selected")
			}
			return "", fmt.Errorf("read model choice: %w", err)
		}
	}
}
