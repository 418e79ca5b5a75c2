package geometry

import (
	"github.com/chewxy/math32"

	"github.com/df07/go-spiral-raytracer/pkg/core"
)

// PacketWidth is the number of lanes in a ray or sphere packet
const PacketWidth = 4

// RayPacket holds four rays in structure-of-arrays form so each field can be
// processed lane by lane
type RayPacket struct {
	OriginX, OriginY, OriginZ [PacketWidth]float32
	DirX, DirY, DirZ          [PacketWidth]float32
	LengthSq                  [PacketWidth]float32
	TMin, TMax                [PacketWidth]float32

	// Rays and [Near, Far] keep the float64 inputs for building hit records
	Rays      [PacketWidth]core.Ray
	Near, Far float64
}

// NewRayPacket packs four rays sharing the interval [tMin, tMax]
func NewRayPacket(rays [PacketWidth]core.Ray, tMin, tMax float64) RayPacket {
	p := RayPacket{Rays: rays, Near: tMin, Far: tMax}
	for i, r := range rays {
		p.OriginX[i] = float32(r.Origin.X)
		p.OriginY[i] = float32(r.Origin.Y)
		p.OriginZ[i] = float32(r.Origin.Z)
		p.DirX[i] = float32(r.Direction.X)
		p.DirY[i] = float32(r.Direction.Y)
		p.DirZ[i] = float32(r.Direction.Z)
		p.LengthSq[i] = float32(r.Direction.LengthSquared())
		p.TMin[i] = float32(tMin)
		p.TMax[i] = float32(tMax) // +Inf survives the conversion
	}
	return p
}

// SpherePacket holds up to four spheres in structure-of-arrays form.
// Padding lanes have Index -1 and never report a hit.
type SpherePacket struct {
	CenterX, CenterY, CenterZ [PacketWidth]float32
	RadiusSq                  [PacketWidth]float32
	Index                     [PacketWidth]int
}

// NewSpherePackets groups spheres four at a time. indices[i] is the scene
// primitive index of spheres[i].
func NewSpherePackets(spheres []*Sphere, indices []int) []SpherePacket {
	packets := make([]SpherePacket, 0, (len(spheres)+PacketWidth-1)/PacketWidth)
	for start := 0; start < len(spheres); start += PacketWidth {
		var p SpherePacket
		for lane := 0; lane < PacketWidth; lane++ {
			i := start + lane
			if i >= len(spheres) {
				p.Index[lane] = -1
				continue
			}
			s := spheres[i]
			p.CenterX[lane] = float32(s.Center.X)
			p.CenterY[lane] = float32(s.Center.Y)
			p.CenterZ[lane] = float32(s.Center.Z)
			p.RadiusSq[lane] = float32(s.RadiusSq)
			p.Index[lane] = indices[i]
		}
		packets = append(packets, p)
	}
	return packets
}

// PacketHits tracks the closest hit per ray lane. Index is -1 for a miss.
type PacketHits struct {
	T     [PacketWidth]float32
	Index [PacketWidth]int
}

// NewPacketHits returns a record with every lane missing
func NewPacketHits() PacketHits {
	var h PacketHits
	for lane := range h.T {
		h.T[lane] = math32.Inf(1)
		h.Index[lane] = -1
	}
	return h
}

// Intersect tests every ray lane of rays against each sphere in the packet,
// keeping the nearest root per lane in hits. Ties keep the earlier hit.
func (sp *SpherePacket) Intersect(rays *RayPacket, live [PacketWidth]bool, hits *PacketHits) {
	for s := 0; s < PacketWidth; s++ {
		index := sp.Index[s]
		if index < 0 {
			continue
		}
		cx, cy, cz, rsq := sp.CenterX[s], sp.CenterY[s], sp.CenterZ[s], sp.RadiusSq[s]

		for lane := 0; lane < PacketWidth; lane++ {
			if !live[lane] {
				continue
			}
			ocX := rays.OriginX[lane] - cx
			ocY := rays.OriginY[lane] - cy
			ocZ := rays.OriginZ[lane] - cz

			a := rays.LengthSq[lane]
			halfB := ocX*rays.DirX[lane] + ocY*rays.DirY[lane] + ocZ*rays.DirZ[lane]
			c := ocX*ocX + ocY*ocY + ocZ*ocZ - rsq

			discriminant := halfB*halfB - a*c
			if discriminant < 0 {
				continue
			}
			sqrtD := math32.Sqrt(discriminant)

			tMin, tMax := rays.TMin[lane], math32.Min(rays.TMax[lane], hits.T[lane])
			root := (-halfB - sqrtD) / a
			if root < tMin || root > tMax {
				root = (-halfB + sqrtD) / a
				if root < tMin || root > tMax {
					continue
				}
			}

			if root < hits.T[lane] {
				hits.T[lane] = root
				hits.Index[lane] = index
			}
		}
	}
}
