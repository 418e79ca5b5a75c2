package integrator

import (
	"github.com/df07/go-spiral-raytracer/pkg/core"
	"github.com/df07/go-spiral-raytracer/pkg/geometry"
	"github.com/df07/go-spiral-raytracer/pkg/scene"
)

// TracePacket traces up to four rays together. Lanes with live[i] false are
// ignored and return black. Each bounce intersects all live lanes against the
// scene's sphere packets; a lane leaves the packet when it escapes to the
// background, is absorbed or runs out of depth.
func (pt *PathTracer) TracePacket(batch [geometry.PacketWidth]core.Ray, live [geometry.PacketWidth]bool, s *scene.Scene, sampler core.Sampler, depth int, rays *uint64) [geometry.PacketWidth]core.Vec3 {
	var colors [geometry.PacketWidth]core.Vec3
	var throughput [geometry.PacketWidth]core.Vec3
	for lane := range throughput {
		throughput[lane] = core.NewVec3(1, 1, 1)
	}

	for ; depth > 0 && anyLive(live); depth-- {
		for lane := range live {
			if live[lane] {
				*rays++
			}
		}

		packet := geometry.NewRayPacket(batch, core.TraceEpsilon, core.TraceInfinity)
		records, hits := s.IntersectPacket(&packet, live)

		for lane := range live {
			if !live[lane] {
				continue
			}
			if !hits[lane] {
				colors[lane] = throughput[lane].MultiplyVec(s.Background.Color(batch[lane].Direction))
				live[lane] = false
				continue
			}

			scatter, didScatter := records[lane].Material.Scatter(batch[lane], records[lane], sampler)
			if !didScatter {
				live[lane] = false
				continue
			}
			throughput[lane] = throughput[lane].MultiplyVec(scatter.Attenuation)
			batch[lane] = scatter.Scattered
		}
	}

	// Lanes still live here ran out of depth and stay black
	return colors
}

func anyLive(live [geometry.PacketWidth]bool) bool {
	for _, l := range live {
		if l {
			return true
		}
	}
	return false
}
