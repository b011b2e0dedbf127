// Package catalog resolves physical RFID tag identifiers to logical
// cards. The backing file is line oriented: `id[.id...]|<rank><suit>`,
// so several sleeved tags can map onto one card.
package catalog

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"bridgetable/internal/bridge"
)

// Catalog is an immutable tag-to-card table, built once at startup and
// passed to the antenna controllers.
type Catalog struct {
	byTag map[string]bridge.Card
}

// Load reads a catalog file from disk.
func Load(path string, logger *log.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	defer f.Close()
	return Parse(f, logger)
}

// Parse reads the line-oriented tag table. Malformed lines are logged
// and skipped; an empty result is an error.
func Parse(r io.Reader, logger *log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = log.Default()
	}
	cat := &Catalog{byTag: make(map[string]bridge.Card)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids, card, err := parseLine(line)
		if err != nil {
			logger.Printf("catalog line %d: %v", lineNo, err)
			continue
		}
		for _, id := range ids {
			if prev, ok := cat.byTag[id]; ok && prev != card {
				logger.Printf("catalog line %d: tag %s remapped from %v to %v", lineNo, id, prev, card)
			}
			cat.byTag[id] = card
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	if len(cat.byTag) == 0 {
		return nil, errors.New("catalog: no usable entries")
	}
	return cat, nil
}

func parseLine(line string) ([]string, bridge.Card, error) {
	parts := strings.SplitN(line, "|", 2)
	if len(parts) != 2 {
		return nil, bridge.Card{}, fmt.Errorf("missing separator in %q", line)
	}
	card, err := bridge.ParseCard(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, bridge.Card{}, fmt.Errorf("bad card in %q: %w", line, err)
	}
	var ids []string
	for _, id := range strings.Split(parts[0], ".") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, bridge.Card{}, fmt.Errorf("no tag ids in %q", line)
	}
	return ids, card, nil
}

// Lookup resolves a tag identifier.
func (c *Catalog) Lookup(id string) (bridge.Card, bool) {
	card, ok := c.byTag[strings.TrimSpace(id)]
	return card, ok
}

// Len returns the number of known tags.
func (c *Catalog) Len() int {
	return len(c.byTag)
}
