package compiler

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"

	"github.com/seal9055/baby-interpreter/lang/bytecode"
)

// Version must be incremented whenever the bytecode encoding changes, to
// force recompilation of saved cache files rather than loading a stale
// one under a matching mtime/size guard.
const Version = 1

type cacheHeader struct {
	Version  int
	SrcSize  int64
	SrcMtime int64
}

type cacheFile struct {
	Header  cacheHeader
	Program bytecode.Program
}

func init() {
	gob.Register(bytecode.Nil{})
	gob.Register(bytecode.Number(0))
	gob.Register(bytecode.Bool(false))
	gob.Register(bytecode.StringLiteral(""))
	gob.Register(bytecode.Reg(0))
	gob.Register(bytecode.Pool(0))
	gob.Register(bytecode.CPool(0))
	gob.Register(bytecode.VAddr(0))
	gob.Register(bytecode.Arg(0))
}

// CachePath returns the conventional cache file location for a source
// file: the source path with a ".bcc" suffix appended.
func CachePath(srcPath string) string {
	return srcPath + ".bcc"
}

// SaveCache serializes prog to cachePath, tagged with srcPath's current
// size and modification time so a later LoadCached can detect staleness.
func SaveCache(cachePath, srcPath string, prog *bytecode.Program) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		return fmt.Errorf("compiler: stat source for cache: %w", err)
	}

	var buf bytes.Buffer
	cf := cacheFile{
		Header: cacheHeader{
			Version:  Version,
			SrcSize:  info.Size(),
			SrcMtime: info.ModTime().UnixNano(),
		},
		Program: *prog,
	}
	if err := gob.NewEncoder(&buf).Encode(cf); err != nil {
		return fmt.Errorf("compiler: encode cache: %w", err)
	}
	return os.WriteFile(cachePath, buf.Bytes(), 0o644)
}

// LoadCached memory-maps cachePath and decodes it, returning the cached
// Program only if its header matches srcPath's current size and mtime and
// the on-disk format is the current Version. A false second return value
// means the caller should recompile from source.
func LoadCached(cachePath, srcPath string) (*bytecode.Program, bool, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return nil, false, fmt.Errorf("compiler: stat source for cache: %w", err)
	}

	f, err := os.Open(cachePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("compiler: open cache: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil || fi.Size() == 0 {
		return nil, false, nil
	}

	region, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, false, fmt.Errorf("compiler: mmap cache: %w", err)
	}
	defer region.Unmap()

	var cf cacheFile
	if err := gob.NewDecoder(bytes.NewReader(region)).Decode(&cf); err != nil {
		// Corrupt or foreign-format cache file: treat as a cold cache,
		// not a hard error.
		return nil, false, nil
	}

	if cf.Header.Version != Version ||
		cf.Header.SrcSize != info.Size() ||
		cf.Header.SrcMtime != info.ModTime().UnixNano() {
		return nil, false, nil
	}

	prog := cf.Program
	return &prog, true, nil
}
