package seq

import (
	"encoding/binary"
)

type testRecord struct {
	length      uint16
	other       int8
	scaleFlags  uint8
	actions     uint16
	translation uint16
	move        uint16
	bones       []uint16
	scales      []uint16
}

// testSeq assembles a SEQ image: header, records, slot table, payload.
// Payload pointers are offsets into payload.
type testSeq struct {
	numBones int
	slots    []int8
	records  []testRecord
	payload  []byte
}

func (t *testSeq) put(b ...byte) uint16 {
	p := len(t.payload)
	t.payload = append(t.payload, b...)
	return uint16(p)
}

func (t *testSeq) bytes() []byte {
	recordSize := ANIMATION_FIXED_SIZE + 4*t.numBones
	slotOffset := HEADER_SIZE + recordSize*len(t.records)
	dataOffset := slotOffset + len(t.slots)

	b := make([]byte, HEADER_SIZE, dataOffset+len(t.payload))
	binary.LittleEndian.PutUint16(b[0:], uint16(len(t.slots)))
	binary.LittleEndian.PutUint16(b[2:], uint16(t.numBones))
	binary.LittleEndian.PutUint32(b[4:], uint32(dataOffset+len(t.payload)))
	binary.LittleEndian.PutUint32(b[8:], uint32(dataOffset-HEADER_POINTERS_BASE))
	binary.LittleEndian.PutUint32(b[12:], uint32(slotOffset-HEADER_POINTERS_BASE))

	for _, r := range t.records {
		rec := make([]byte, recordSize)
		binary.LittleEndian.PutUint16(rec[0:], r.length)
		rec[2] = byte(r.other)
		rec[3] = r.scaleFlags
		binary.LittleEndian.PutUint16(rec[4:], r.actions)
		binary.LittleEndian.PutUint16(rec[6:], r.translation)
		binary.LittleEndian.PutUint16(rec[8:], r.move)
		for i := 0; i < t.numBones; i++ {
			if i < len(r.bones) {
				binary.LittleEndian.PutUint16(rec[ANIMATION_FIXED_SIZE+i*2:], r.bones[i])
			}
			if i < len(r.scales) {
				binary.LittleEndian.PutUint16(rec[ANIMATION_FIXED_SIZE+t.numBones*2+i*2:], r.scales[i])
			}
		}
		b = append(b, rec...)
	}
	for _, s := range t.slots {
		b = append(b, byte(s))
	}
	return append(b, t.payload...)
}

func be16(v int16) []byte {
	return []byte{byte(uint16(v) >> 8), byte(v)}
}

func xyz(x, y, z int16) []byte {
	b := be16(x)
	b = append(b, be16(y)...)
	return append(b, be16(z)...)
}

func cat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}
