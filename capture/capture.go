// Package capture reads and writes DHZC files, a debug dump of the
// intermediate fields one dehaze analysis produced.
//
// A DHZC file is little-endian:
//
//	magic "DHZC" | version uint32 | id [16]byte
//	width uint32 | height uint32
//	strength float32 | depth float32 | strategy uint8 | precision uint8
//	airlight first uint8 | airlight last uint8
//	field count uint32
//	per field: name (null-terminated) | width uint32 | height uint32 |
//	           payload length uint32 | payload
//
// A payload is the field's samples as binary16, split into low and high
// byte planes, delta coded and compressed with zstd.
package capture

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/mrjoshuak/go-dehaze/dehaze"
	"github.com/mrjoshuak/go-dehaze/internal/wire"
)

// Magic starts every capture file.
const Magic = "DHZC"

// Version is the format version written by Write.
const Version = 1

// Format limits enforced by Read.
const (
	MaxFields     = 64
	MaxNameLength = 64
	MaxDimension  = 1 << 15
)

// Field names written by FromEstimate.
const (
	FieldDark         = "dark"
	FieldMean         = "mean"
	FieldVariance     = "variance"
	FieldNoise        = "noise"
	FieldTileMax      = "tilemax"
	FieldAirlight     = "airlight"
	FieldTransmission = "transmission"
)

var (
	ErrBadMagic           = errors.New("capture: not a DHZC file")
	ErrUnsupportedVersion = errors.New("capture: unsupported version")
	ErrCorrupted          = errors.New("capture: corrupted file")
)

// NamedField is one stored field.
type NamedField struct {
	Name  string
	Field *dehaze.Field
}

// Capture is the in-memory form of a DHZC file.
type Capture struct {
	ID            uuid.UUID
	Width, Height int
	// Config holds the tuning the frame was analyzed with. Workers is not
	// stored.
	Config         dehaze.Config
	AirlightLevels [2]int
	Fields         []NamedField
}

// FromEstimate collects the fields of est under a fresh capture id. The
// fields are shared with est, not copied.
func FromEstimate(est *dehaze.Estimate) *Capture {
	cfg := est.Config
	cfg.Workers = 0
	return &Capture{
		ID:             uuid.New(),
		Width:          est.Width(),
		Height:         est.Height(),
		Config:         cfg,
		AirlightLevels: est.AirlightLevels,
		Fields: []NamedField{
			{FieldDark, est.Dark},
			{FieldMean, est.Mean},
			{FieldVariance, est.Variance},
			{FieldNoise, est.VarianceMips.Coarsest()},
			{FieldTileMax, est.MaxPyramid.Level(0)},
			{FieldAirlight, est.Airlight},
			{FieldTransmission, est.Transmission},
		},
	}
}

// Field returns the field stored under name, or nil.
func (c *Capture) Field(name string) *dehaze.Field {
	for _, f := range c.Fields {
		if f.Name == name {
			return f.Field
		}
	}
	return nil
}

// Write encodes c to w.
func Write(w io.Writer, c *Capture) error {
	if len(c.Fields) > MaxFields {
		return fmt.Errorf("capture: %d fields exceed the limit of %d", len(c.Fields), MaxFields)
	}
	buf := wire.NewBuffer(1024)
	buf.WriteBytes([]byte(Magic))
	buf.WriteUint32(Version)
	buf.WriteBytes(c.ID[:])
	buf.WriteUint32(uint32(c.Width))
	buf.WriteUint32(uint32(c.Height))
	buf.WriteFloat32(c.Config.StrengthMultiplier)
	buf.WriteFloat32(c.Config.DepthMultiplier)
	buf.WriteByte(byte(c.Config.Strategy))
	buf.WriteByte(byte(c.Config.Precision))
	buf.WriteByte(byte(c.AirlightLevels[0]))
	buf.WriteByte(byte(c.AirlightLevels[1]))
	buf.WriteUint32(uint32(len(c.Fields)))

	for _, nf := range c.Fields {
		f := nf.Field
		if nf.Name == "" || len(nf.Name) > MaxNameLength {
			return fmt.Errorf("capture: invalid field name %q", nf.Name)
		}
		if f == nil || f.Width <= 0 || f.Height <= 0 || len(f.Pix) != f.Width*f.Height {
			return fmt.Errorf("capture: field %q is empty or inconsistent", nf.Name)
		}
		payload, err := encodeSamples(f.Pix)
		if err != nil {
			return fmt.Errorf("capture: encoding %q: %w", nf.Name, err)
		}
		buf.WriteString(nf.Name)
		buf.WriteUint32(uint32(f.Width))
		buf.WriteUint32(uint32(f.Height))
		buf.WriteUint32(uint32(len(payload)))
		buf.WriteBytes(payload)
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// Read decodes a capture from r.
func Read(r io.Reader) (*Capture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode decodes a capture held in memory.
func Decode(data []byte) (*Capture, error) {
	rd := wire.NewReader(data)
	magic, err := rd.Next(len(Magic))
	if err != nil || string(magic) != Magic {
		return nil, ErrBadMagic
	}
	version, err := rd.ReadUint32()
	if err != nil {
		return nil, corrupted(err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	c := &Capture{}
	id, err := rd.Next(len(c.ID))
	if err != nil {
		return nil, corrupted(err)
	}
	copy(c.ID[:], id)

	if c.Width, c.Height, err = readSize(rd); err != nil {
		return nil, err
	}
	if err := readConfig(rd, c); err != nil {
		return nil, err
	}

	count, err := rd.ReadUint32()
	if err != nil {
		return nil, corrupted(err)
	}
	if count > MaxFields {
		return nil, fmt.Errorf("%w: %d fields", ErrCorrupted, count)
	}
	c.Fields = make([]NamedField, 0, count)
	for range count {
		nf, err := readField(rd)
		if err != nil {
			return nil, err
		}
		c.Fields = append(c.Fields, nf)
	}
	if rd.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupted, rd.Len())
	}
	return c, nil
}

func readSize(rd *wire.Reader) (int, int, error) {
	w, err := rd.ReadUint32()
	if err != nil {
		return 0, 0, corrupted(err)
	}
	h, err := rd.ReadUint32()
	if err != nil {
		return 0, 0, corrupted(err)
	}
	if w == 0 || h == 0 || w > MaxDimension || h > MaxDimension {
		return 0, 0, fmt.Errorf("%w: size %dx%d", ErrCorrupted, w, h)
	}
	return int(w), int(h), nil
}

func readConfig(rd *wire.Reader, c *Capture) error {
	var err error
	if c.Config.StrengthMultiplier, err = rd.ReadFloat32(); err != nil {
		return corrupted(err)
	}
	if c.Config.DepthMultiplier, err = rd.ReadFloat32(); err != nil {
		return corrupted(err)
	}
	b, err := rd.Next(4)
	if err != nil {
		return corrupted(err)
	}
	c.Config.Strategy = dehaze.Strategy(b[0])
	c.Config.Precision = dehaze.Precision(b[1])
	c.AirlightLevels = [2]int{int(b[2]), int(b[3])}
	if err := c.Config.Validate(); err != nil {
		return corrupted(err)
	}
	return nil
}

func readField(rd *wire.Reader) (NamedField, error) {
	name, err := rd.ReadString(MaxNameLength)
	if err != nil {
		return NamedField{}, corrupted(err)
	}
	if name == "" {
		return NamedField{}, fmt.Errorf("%w: unnamed field", ErrCorrupted)
	}
	w, h, err := readSize(rd)
	if err != nil {
		return NamedField{}, err
	}
	n, err := rd.ReadUint32()
	if err != nil {
		return NamedField{}, corrupted(err)
	}
	payload, err := rd.Next(int(n))
	if err != nil {
		return NamedField{}, corrupted(err)
	}
	pix, err := decodeSamples(payload, w*h)
	if err != nil {
		return NamedField{}, fmt.Errorf("field %q: %w", name, err)
	}
	return NamedField{Name: name, Field: &dehaze.Field{Width: w, Height: h, Pix: pix}}, nil
}

func corrupted(err error) error {
	return fmt.Errorf("%w: %v", ErrCorrupted, err)
}

// WriteFile writes c to the named file.
func WriteFile(path string, c *Capture) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the named capture file.
func ReadFile(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}
