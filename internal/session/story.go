package session

import "github.com/signalsfoundry/asteroid-defense/model"

// ControlsUnlockStep is the story step at which the sandbox opens: time
// controls, free camera views and mitigation measures.
const ControlsUnlockStep = 3

// storyViews is the camera view shown at each introduction step.
var storyViews = []model.CameraView{
	model.ViewGlobal,
	model.ViewGlobal,
	model.ViewEarthZoom,
	model.ViewAsteroid,
}

// StorySteps returns the number of introduction steps.
func StorySteps() int { return len(storyViews) }

// StoryView returns the camera view of a story step.
func StoryView(step int) model.CameraView {
	if step < 0 || step >= len(storyViews) {
		return model.ViewGlobal
	}
	return storyViews[step]
}
