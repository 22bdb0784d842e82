package loader

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

var (
	errInvalidGLTFVersion = errors.New("invalid glTF version: must be 2.x")
	errInvalidGLBMagic    = errors.New("invalid GLB magic number")
	errInvalidGLBVersion  = errors.New("invalid GLB version: must be 2")
	errMissingJSONChunk   = errors.New("GLB file missing JSON chunk")
	errInvalidBufferURI   = errors.New("invalid buffer URI")
	errBufferSizeMismatch = errors.New("buffer size mismatch")
	errAccessorRange      = errors.New("accessor reads past the end of its buffer")
)

// gltfParser decodes a glTF or GLB document and reads typed accessor data out of its buffers.
type gltfParser struct {
	// baseDir resolves relative buffer URIs. Empty for readers.
	baseDir        string
	document       *gltfDocument
	glbBinaryChunk []byte
}

func newGLTFParser() *gltfParser {
	return &gltfParser{}
}

// Parse reads a .gltf or .glb file. GLB is detected by extension or by its magic number.
func (p *gltfParser) Parse(path string) error {
	p.baseDir = filepath.Dir(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	isGLB := strings.EqualFold(filepath.Ext(path), ".glb") ||
		(len(data) >= 4 && binary.LittleEndian.Uint32(data[:4]) == gltfGLBMagic)
	return p.parse(data, isGLB)
}

// ParseReader reads a document from r. External buffer URIs cannot be resolved without a path.
func (p *gltfParser) ParseReader(r io.Reader, isGLB bool) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	return p.parse(data, isGLB)
}

func (p *gltfParser) parse(data []byte, isGLB bool) error {
	jsonData := data
	if isGLB {
		var err error
		if jsonData, err = p.splitGLB(data); err != nil {
			return err
		}
	}

	var doc gltfDocument
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("failed to parse glTF JSON: %w", err)
	}
	if !strings.HasPrefix(doc.Asset.Version, "2.") {
		return errInvalidGLTFVersion
	}
	if err := p.loadBuffers(&doc); err != nil {
		return fmt.Errorf("failed to load buffers: %w", err)
	}
	p.document = &doc
	return nil
}

// splitGLB returns the JSON chunk and keeps the BIN chunk for buffer 0.
// Reference: https://registry.khronos.org/glTF/specs/2.0/glTF-2.0.html#glb-file-format-specification
func (p *gltfParser) splitGLB(data []byte) ([]byte, error) {
	r := bytes.NewReader(data)

	var header gltfGLBHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read GLB header: %w", err)
	}
	if header.Magic != gltfGLBMagic {
		return nil, errInvalidGLBMagic
	}
	if header.Version != gltfGLBVersion {
		return nil, errInvalidGLBVersion
	}

	var jsonData []byte
	for {
		var chunk gltfGLBChunkHeader
		if err := binary.Read(r, binary.LittleEndian, &chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read chunk header: %w", err)
		}
		if int64(chunk.ChunkLength) > int64(r.Len()) {
			return nil, fmt.Errorf("chunk of %d bytes overruns the file", chunk.ChunkLength)
		}
		body := make([]byte, chunk.ChunkLength)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, fmt.Errorf("failed to read chunk data: %w", err)
		}

		switch chunk.ChunkType {
		case gltfGLBChunkJSON:
			jsonData = body
		case gltfGLBChunkBIN:
			p.glbBinaryChunk = body
		}
	}

	if jsonData == nil {
		return nil, errMissingJSONChunk
	}
	return jsonData, nil
}

func (p *gltfParser) loadBuffers(doc *gltfDocument) error {
	for i := range doc.Buffers {
		buf := &doc.Buffers[i]

		switch {
		case buf.URI == "" && i == 0 && p.glbBinaryChunk != nil:
			buf.Data = p.glbBinaryChunk
		case buf.URI == "":
			return fmt.Errorf("buffer %d has no URI and no GLB binary chunk", i)
		default:
			data, err := p.loadBufferURI(buf.URI)
			if err != nil {
				return fmt.Errorf("buffer %d: %w", i, err)
			}
			buf.Data = data
		}

		if len(buf.Data) < buf.ByteLength {
			return fmt.Errorf("buffer %d: %w", i, errBufferSizeMismatch)
		}
	}
	return nil
}

func (p *gltfParser) loadBufferURI(uri string) ([]byte, error) {
	if strings.HasPrefix(uri, "data:") {
		return decodeDataURI(uri)
	}
	if p.baseDir == "" {
		return nil, fmt.Errorf("external buffer %q needs a file path", uri)
	}
	data, err := os.ReadFile(filepath.Join(p.baseDir, uri))
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer file %q: %w", uri, err)
	}
	return data, nil
}

// decodeDataURI decodes data:[<mediatype>];base64,<data>.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, errInvalidBufferURI
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data URI encoding %q: %w", header, errInvalidBufferURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64: %w", err)
	}
	return data, nil
}

// accessor returns the accessor at index, checking its type against want.
func (p *gltfParser) accessor(index int, wantType string) (*gltfAccessor, error) {
	if p.document == nil {
		return nil, errors.New("no document loaded")
	}
	if index < 0 || index >= len(p.document.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", index)
	}
	acc := &p.document.Accessors[index]
	if acc.Type != wantType {
		return nil, fmt.Errorf("accessor %d is %s, want %s", index, acc.Type, wantType)
	}
	if acc.Sparse != nil {
		return nil, fmt.Errorf("accessor %d: sparse accessors are not supported", index)
	}
	if acc.BufferView == nil || *acc.BufferView < 0 || *acc.BufferView >= len(p.document.BufferViews) {
		return nil, fmt.Errorf("accessor %d has no valid bufferView", index)
	}
	return acc, nil
}

// elements calls fn with the bytes of each element of acc, honouring the view's byte stride.
func (p *gltfParser) elements(acc *gltfAccessor, fn func(i int, b []byte)) error {
	bv := &p.document.BufferViews[*acc.BufferView]
	if bv.Buffer < 0 || bv.Buffer >= len(p.document.Buffers) {
		return fmt.Errorf("bufferView references buffer %d of %d", bv.Buffer, len(p.document.Buffers))
	}
	data := p.document.Buffers[bv.Buffer].Data

	elementSize := gltfComponentTypeSize(acc.ComponentType) * gltfAccessorTypeComponentCount(acc.Type)
	if elementSize == 0 {
		return fmt.Errorf("unsupported accessor layout %s/%d", acc.Type, acc.ComponentType)
	}
	stride := elementSize
	if bv.ByteStride != nil && *bv.ByteStride > 0 {
		stride = *bv.ByteStride
	}

	start := bv.ByteOffset + acc.ByteOffset
	if acc.Count > 0 {
		end := start + (acc.Count-1)*stride + elementSize
		if start < 0 || end > len(data) || end > bv.ByteOffset+bv.ByteLength {
			return errAccessorRange
		}
	}
	for i := range acc.Count {
		off := start + i*stride
		fn(i, data[off:off+elementSize])
	}
	return nil
}

// ReadVec3Accessor reads a VEC3 FLOAT accessor such as POSITION.
func (p *gltfParser) ReadVec3Accessor(index int) ([][3]float32, error) {
	acc, err := p.accessor(index, gltfAccessorTypeVec3)
	if err != nil {
		return nil, err
	}
	if acc.ComponentType != gltfComponentTypeFloat {
		return nil, fmt.Errorf("accessor %d: component type %d, want FLOAT", index, acc.ComponentType)
	}

	out := make([][3]float32, acc.Count)
	err = p.elements(acc, func(i int, b []byte) {
		for c := range 3 {
			out[i][c] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*c:]))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("accessor %d: %w", index, err)
	}
	return out, nil
}

// ReadIndicesAccessor reads a SCALAR index accessor of unsigned byte, short or int components.
func (p *gltfParser) ReadIndicesAccessor(index int) ([]uint32, error) {
	acc, err := p.accessor(index, gltfAccessorTypeScalar)
	if err != nil {
		return nil, err
	}

	var read func(b []byte) uint32
	switch acc.ComponentType {
	case gltfComponentTypeUnsignedByte:
		read = func(b []byte) uint32 { return uint32(b[0]) }
	case gltfComponentTypeUnsignedShort:
		read = func(b []byte) uint32 { return uint32(binary.LittleEndian.Uint16(b)) }
	case gltfComponentTypeUnsignedInt:
		read = binary.LittleEndian.Uint32
	default:
		return nil, fmt.Errorf("accessor %d: unsupported index component type %d", index, acc.ComponentType)
	}

	out := make([]uint32, acc.Count)
	if err := p.elements(acc, func(i int, b []byte) { out[i] = read(b) }); err != nil {
		return nil, fmt.Errorf("accessor %d: %w", index, err)
	}
	return out, nil
}

func gltfComponentTypeSize(componentType int) int {
	switch componentType {
	case gltfComponentTypeByte, gltfComponentTypeUnsignedByte:
		return 1
	case gltfComponentTypeShort, gltfComponentTypeUnsignedShort:
		return 2
	case gltfComponentTypeUnsignedInt, gltfComponentTypeFloat:
		return 4
	default:
		return 0
	}
}

func gltfAccessorTypeComponentCount(accessorType string) int {
	switch accessorType {
	case gltfAccessorTypeScalar:
		return 1
	case gltfAccessorTypeVec2:
		return 2
	case gltfAccessorTypeVec3:
		return 3
	case gltfAccessorTypeVec4:
		return 4
	case gltfAccessorTypeMat4:
		return 16
	default:
		return 0
	}
}
