// Package book implements Polyglot opening book lookups. The quick-filter
// uses it to skip evaluating moves that are still in known theory.
package book

import (
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"

	"github.com/notnil/chess"
)

// BookEntry represents a single book entry. The move is stored in UCI form.
type BookEntry struct {
	Move   string
	Weight uint16
}

// Book represents an opening book.
type Book struct {
	entries map[uint64][]BookEntry
}

// New creates an empty book.
func New() *Book {
	return &Book{
		entries: make(map[uint64][]BookEntry),
	}
}

// LoadPolyglot loads a Polyglot format opening book from a file.
func LoadPolyglot(filename string) (*Book, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return LoadPolyglotReader(file)
}

// LoadPolyglotReader loads a Polyglot format book from a reader.
func LoadPolyglotReader(r io.Reader) (*Book, error) {
	book := New()

	// Polyglot entry format:
	// 8 bytes: position key (big-endian)
	// 2 bytes: move (big-endian)
	// 2 bytes: weight (big-endian)
	// 4 bytes: learn data (ignored)
	var entry [16]byte

	for {
		_, err := io.ReadFull(r, entry[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		key := binary.BigEndian.Uint64(entry[0:8])
		moveData := binary.BigEndian.Uint16(entry[8:10])
		weight := binary.BigEndian.Uint16(entry[10:12])

		if move := decodePolyglotMove(moveData); move != "" {
			book.entries[key] = append(book.entries[key], BookEntry{
				Move:   move,
				Weight: weight,
			})
		}
	}

	return book, nil
}

var fileNames = "abcdefgh"
var promoNames = []string{"", "n", "b", "r", "q"}

// decodePolyglotMove converts a Polyglot move encoding to a UCI string.
// Polyglot move format (bits):
// 0-5: to square
// 6-11: from square
// 12-14: promotion piece (0=none, 1=knight, 2=bishop, 3=rook, 4=queen)
func decodePolyglotMove(data uint16) string {
	toFile := int(data & 7)
	toRank := int((data >> 3) & 7)
	fromFile := int((data >> 6) & 7)
	fromRank := int((data >> 9) & 7)
	promo := int((data >> 12) & 7)
	if promo > 4 {
		return ""
	}

	// Handle castling: Polyglot uses king-captures-rook encoding.
	if fromFile == 4 && fromRank == 0 && toRank == 0 {
		if toFile == 7 {
			toFile = 6 // e1h1 -> e1g1
		} else if toFile == 0 {
			toFile = 2 // e1a1 -> e1c1
		}
	} else if fromFile == 4 && fromRank == 7 && toRank == 7 {
		if toFile == 7 {
			toFile = 6 // e8h8 -> e8g8
		} else if toFile == 0 {
			toFile = 2 // e8a8 -> e8c8
		}
	}

	return fmt.Sprintf("%c%d%c%d%s",
		fileNames[fromFile], fromRank+1,
		fileNames[toFile], toRank+1,
		promoNames[promo])
}

// Contains reports whether the move is a book move for the position.
func (b *Book) Contains(pos *chess.Position, m *chess.Move) bool {
	if b == nil {
		return false
	}
	uciMove := chess.UCINotation{}.Encode(pos, m)
	for _, e := range b.entries[PolyglotHash(pos)] {
		if e.Move == uciMove {
			return true
		}
	}
	return false
}

// Probe looks up a position in the book and returns a move using weighted
// random selection. The move is verified against the legal moves of the
// position; unverifiable entries are skipped.
func (b *Book) Probe(pos *chess.Position) (*chess.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return nil, false
	}

	totalWeight := uint32(0)
	for _, e := range entries {
		totalWeight += uint32(e.Weight)
	}

	pick := entries[0].Move
	if totalWeight > 0 {
		r := rand.Uint32() % totalWeight
		cumulative := uint32(0)
		for _, e := range entries {
			cumulative += uint32(e.Weight)
			if r < cumulative {
				pick = e.Move
				break
			}
		}
	}

	if m := verifyMove(pos, pick); m != nil {
		return m, true
	}
	// Fall back to any legal entry.
	for _, e := range entries {
		if m := verifyMove(pos, e.Move); m != nil {
			return m, true
		}
	}
	return nil, false
}

// ProbeAll returns all book moves for the position, sorted by weight.
func (b *Book) ProbeAll(pos *chess.Position) []BookEntry {
	if b == nil {
		return nil
	}

	entries, ok := b.entries[PolyglotHash(pos)]
	if !ok {
		return nil
	}

	result := make([]BookEntry, len(entries))
	copy(result, entries)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Weight > result[j].Weight
	})

	return result
}

// verifyMove resolves a UCI string against the position's legal moves.
func verifyMove(pos *chess.Position, uciMove string) *chess.Move {
	m, err := chess.UCINotation{}.Decode(pos, uciMove)
	if err != nil {
		return nil
	}
	return m
}

// Size returns the number of unique positions in the book.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}
