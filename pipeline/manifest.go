package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/tormoder/fit/dyncrc16"
)

// artifactCRC returns the CRC-16 used in the manifest, formatted as 0xNNNN.
func artifactCRC(data []byte) string {
	return fmt.Sprintf("0x%04X", dyncrc16.Checksum(data))
}

// writeArtifact stores data under name and returns its manifest entry.
func writeArtifact(sink Sink, name string, data []byte) (ArtifactRef, error) {
	if err := sink.WriteFile(name, data); err != nil {
		return ArtifactRef{}, fmt.Errorf("write %s: %w", name, err)
	}
	return ArtifactRef{Path: name, Size: len(data), CRC16: artifactCRC(data)}, nil
}

func marshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
