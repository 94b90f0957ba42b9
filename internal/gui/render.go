package gui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	src := rl.NewRectangle(0, 0, float32(a.Texture.Width), float32(a.Texture.Height))
	dst := rl.NewRectangle(0, 0, float32(a.Texture.Width)*a.Scale, float32(a.Texture.Height)*a.Scale)
	rl.DrawTexturePro(a.Texture, src, dst, rl.NewVector2(0, 0), 0, rl.White)

	if a.ShowHUD {
		a.DrawHUD()
	}
	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	rl.DrawRectangle(10, 10, 330, 118, ColPanel)

	st := a.Stats
	rl.DrawText(fmt.Sprintf("%s  %d FPS  frame %d", a.Name, rl.GetFPS(), st.Frame), 20, 18, 16, ColText)
	rl.DrawText(fmt.Sprintf("kin %v  den %v  comp %v", st.Kinematics, st.Density, st.Composite), 20, 40, 12, ColTextDim)
	rl.DrawText(fmt.Sprintf("attraction %.4f  friction %.4f", a.Tuning.Attraction, a.Tuning.Friction), 20, 58, 12, ColTextDim)
	rl.DrawText(fmt.Sprintf("%s  %d workers  in range %d", a.Engine.KernelName(), a.Engine.Workers(), st.InRange), 20, 76, 12, ColTextDim)

	status := a.Status
	if a.Paused {
		status = "paused"
	}
	if st.Skipped {
		status = "over budget"
	}
	if status != "" {
		rl.DrawText(status, 20, 94, 12, ColAccent)
	}
	rl.DrawText("mouse attractor  up/down attraction  left/right friction  s snap  h hud", 20, 110, 10, ColTextDim)

	a.DrawTelemetry(10, 136, 330, 50)

	c := a.Attractor
	rl.DrawCircleLines(int32(c.X*a.Scale), int32(c.Y*a.Scale), 6, ColAccent)
}

// DrawTelemetry plots recent frame times, scaled to the window's max.
func (a *App) DrawTelemetry(x, y, width, height int32) {
	series := a.Recorder.Series()
	if len(series) < 2 {
		return
	}
	lo, hi := series[0], series[0]
	for _, v := range series {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}

	rl.DrawRectangle(x, y, width, height, ColPanel)
	points := make([]rl.Vector2, len(series))
	for i, v := range series {
		px := float32(x) + float32(i)/float32(len(series)-1)*float32(width)
		norm := (v - lo) / (hi - lo)
		py := float32(y+height) - float32(norm)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}
	rl.DrawLineStrip(points, ColGraph)
	rl.DrawText(fmt.Sprintf("%.2f ms", series[len(series)-1]), x+width-70, y+4, 12, ColText)
}
