package store

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/golang/snappy"

	"chunkworld/internal/voxel"
)

// volumeEncodingVersion guards the on-disk run-length encoding so a
// future format change can be detected rather than silently misread.
const volumeEncodingVersion = 1

// run is one run-length-encoded span of identical block ids, the same
// shape used for persisted chunk columns, generalized here to the whole
// S*S*H volume since a chunk is persisted as a single record.
type run struct {
	Count int
	ID    voxel.BlockID
}

type volumeEncoding struct {
	Version int
	Runs    []run
}

// encodeVolume run-length-encodes then snappy-compresses a volume for
// storage. Terrain is overwhelmingly repetitive (long stone/air runs),
// so RLE collapses the bulk of the volume before compression ever runs.
func encodeVolume(vol voxel.Volume) ([]byte, error) {
	if err := vol.Validate(); err != nil {
		return nil, err
	}

	enc := volumeEncoding{Version: volumeEncodingVersion, Runs: compressRuns(vol)}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&enc); err != nil {
		return nil, fmt.Errorf("encode volume: %w", err)
	}

	return snappy.Encode(nil, buf.Bytes()), nil
}

// decodeVolume reverses encodeVolume, always producing a volume of
// exactly VolumeLen bytes (invariant 1).
func decodeVolume(payload []byte) (voxel.Volume, error) {
	raw, err := snappy.Decode(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("decompress volume: %w", err)
	}

	var enc volumeEncoding
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&enc); err != nil {
		return nil, fmt.Errorf("decode volume: %w", err)
	}
	if enc.Version != volumeEncodingVersion {
		return nil, fmt.Errorf("unsupported volume encoding version %d", enc.Version)
	}

	vol := expandRuns(enc.Runs)
	if err := vol.Validate(); err != nil {
		return nil, fmt.Errorf("decoded volume malformed: %w", err)
	}
	return vol, nil
}

func compressRuns(vol voxel.Volume) []run {
	if len(vol) == 0 {
		return nil
	}
	runs := make([]run, 0, 64)
	for _, id := range vol {
		n := len(runs)
		if n > 0 && runs[n-1].ID == id {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, run{Count: 1, ID: id})
	}
	return runs
}

func expandRuns(runs []run) voxel.Volume {
	total := 0
	for _, r := range runs {
		total += r.Count
	}
	vol := make(voxel.Volume, 0, total)
	for _, r := range runs {
		for i := 0; i < r.Count; i++ {
			vol = append(vol, r.ID)
		}
	}
	return vol
}
