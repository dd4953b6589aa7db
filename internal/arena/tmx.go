package arena

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/lafriks/go-tiled"
)

const (
	groupWalls  = "walls"
	groupRamps  = "ramps"
	groupSpawns = "spawns"
)

type properties interface {
	GetString(name string) string
	GetFloat(name string) float64
	GetInt(name string) int
}

// noProperties stands in for objects saved without a properties block.
type noProperties struct{}

func (noProperties) GetString(string) string { return "" }
func (noProperties) GetFloat(string) float64 { return 0 }
func (noProperties) GetInt(string) int       { return 0 }

// LoadTMX reads a Tiled map. One tile is one meter; map Y becomes world Z.
// Rectangle objects in the "walls", "ramps" and "spawns" object groups carry
// their extra data as custom properties:
//
//	walls:  height, base_y, layer
//	ramps:  rise or angle, along, base_y, layer
//	spawns: yaw
//
// The map itself may set ground_y and ground_layer.
func LoadTMX(fsys fs.FS, tmxPath string) (Spec, error) {
	m, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return Spec{}, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	if m.TileWidth <= 0 || m.TileHeight <= 0 {
		return Spec{}, fmt.Errorf("load TMX %s: tile size %dx%d", tmxPath, m.TileWidth, m.TileHeight)
	}

	tw, th := float64(m.TileWidth), float64(m.TileHeight)
	s := Spec{
		Name:  strings.TrimSuffix(path.Base(tmxPath), path.Ext(tmxPath)),
		Width: float64(m.Width),
		Depth: float64(m.Height),
	}
	if m.Properties != nil {
		s.GroundY = m.Properties.GetFloat("ground_y")
		s.GroundLayer = uint32(m.Properties.GetInt("ground_layer"))
	}

	for _, og := range m.ObjectGroups {
		for _, o := range og.Objects {
			var p properties = noProperties{}
			if o.Properties != nil {
				p = o.Properties
			}
			x, z := o.X/tw, o.Y/th
			w, d := o.Width/tw, o.Height/th
			switch og.Name {
			case groupWalls:
				s.Walls = append(s.Walls, WallSpec{
					Name:   o.Name,
					X:      x,
					Z:      z,
					Width:  w,
					Depth:  d,
					Height: p.GetFloat("height"),
					BaseY:  p.GetFloat("base_y"),
					Layer:  uint32(p.GetInt("layer")),
				})
			case groupRamps:
				s.Ramps = append(s.Ramps, RampSpec{
					Name:  o.Name,
					X:     x,
					Z:     z,
					Width: w,
					Depth: d,
					BaseY: p.GetFloat("base_y"),
					Rise:  p.GetFloat("rise"),
					Angle: p.GetFloat("angle"),
					Along: p.GetString("along"),
					Layer: uint32(p.GetInt("layer")),
				})
			case groupSpawns:
				s.Spawns = append(s.Spawns, Spawn{
					Name: o.Name,
					X:    x,
					Z:    z,
					Yaw:  p.GetFloat("yaw"),
				})
			}
		}
	}
	return s, nil
}
