package model

import "fmt"

// CameraView is a requested camera framing.
type CameraView int

const (
	ViewGlobal CameraView = iota
	ViewEarthZoom
	ViewAsteroid
	ViewMeasureLaunch
	ViewMeasureTransit
	ViewMeasureIntercept
	ViewMeasureArrivalMars
)

var cameraViewNames = map[CameraView]string{
	ViewGlobal:             "global",
	ViewEarthZoom:          "earth_zoom",
	ViewAsteroid:           "asteroid",
	ViewMeasureLaunch:      "measure_launch",
	ViewMeasureTransit:     "measure_transit",
	ViewMeasureIntercept:   "measure_intercept",
	ViewMeasureArrivalMars: "measure_arrival_mars",
}

func (v CameraView) String() string {
	if name, ok := cameraViewNames[v]; ok {
		return name
	}
	return "unknown"
}

// ParseCameraView maps a view name to its CameraView.
func ParseCameraView(s string) (CameraView, error) {
	for v, name := range cameraViewNames {
		if name == s {
			return v, nil
		}
	}
	return ViewGlobal, fmt.Errorf("unknown camera view %q", s)
}

// CameraPose is where the camera sits and what it looks at.
type CameraPose struct {
	Position Vec3
	Target   Vec3
}
