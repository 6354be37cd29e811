package dice

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"
)

const serverSeedSize = 32

// rejection bound: largest multiple of Sides that fits in a byte
const fairByteLimit = 256 - 256%Sides

// FairRoller derives each throw from a keyed BLAKE2b hash of the client
// seed and a nonce. Publishing Commitment before play and the server seed
// after lets a player check every throw with Verify.
type FairRoller struct {
	mu         sync.Mutex
	serverSeed []byte
	clientSeed string
	nonce      uint64
}

// NewServerSeed returns a fresh random server seed.
func NewServerSeed() ([]byte, error) {
	seed := make([]byte, serverSeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generate server seed: %w", err)
	}
	return seed, nil
}

func NewFairRoller(serverSeed []byte, clientSeed string) (*FairRoller, error) {
	if len(serverSeed) == 0 || len(serverSeed) > blake2b.Size {
		return nil, errors.New("server seed must be 1..64 bytes")
	}
	return &FairRoller{
		serverSeed: append([]byte{}, serverSeed...),
		clientSeed: clientSeed,
	}, nil
}

// Commitment is the hex BLAKE2b-256 digest of the server seed.
func (f *FairRoller) Commitment() string {
	sum := blake2b.Sum256(f.serverSeed)
	return hex.EncodeToString(sum[:])
}

// Nonce returns the nonce of the most recent throw.
func (f *FairRoller) Nonce() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce
}

func (f *FairRoller) Next() (Roll, error) {
	f.mu.Lock()
	f.nonce++
	nonce := f.nonce
	f.mu.Unlock()
	return fairRoll(f.serverSeed, f.clientSeed, nonce)
}

// Verify recomputes the throw for nonce and compares it with r.
func Verify(serverSeed []byte, clientSeed string, nonce uint64, r Roll) (bool, error) {
	got, err := fairRoll(serverSeed, clientSeed, nonce)
	if err != nil {
		return false, err
	}
	return got == r, nil
}

func fairRoll(serverSeed []byte, clientSeed string, nonce uint64) (Roll, error) {
	faces := make([]int, 0, 2)
	for round := uint32(0); len(faces) < 2; round++ {
		h, err := blake2b.New256(serverSeed)
		if err != nil {
			return Roll{}, err
		}
		var buf [12]byte
		binary.BigEndian.PutUint64(buf[:8], nonce)
		binary.BigEndian.PutUint32(buf[8:], round)
		h.Write([]byte(clientSeed))
		h.Write(buf[:])
		for _, b := range h.Sum(nil) {
			if int(b) >= fairByteLimit {
				continue
			}
			faces = append(faces, int(b)%Sides+1)
			if len(faces) == 2 {
				break
			}
		}
	}
	return Roll{D1: faces[0], D2: faces[1]}, nil
}
