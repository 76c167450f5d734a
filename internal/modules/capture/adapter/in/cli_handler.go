package in

import (
	"context"
	"fmt"

	"worksmart/internal/modules/capture/dto"
	capturein "worksmart/internal/modules/capture/port/in"
	prefsin "worksmart/internal/modules/preferences/port/in"
	apperrors "worksmart/internal/platform/errors"
)

const selectedDeviceKey = "selected_device"

type CLIHandler struct {
	devices capturein.Devices
	prefs   prefsin.Usecase
}

func NewCLIHandler(devices capturein.Devices, prefs prefsin.Usecase) CLIHandler {
	return CLIHandler{devices: devices, prefs: prefs}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.Device, error) {
	return h.devices.ListDevices(ctx)
}

// Select stores deviceID as the webcam used for portraits. The device must be
// one the provider currently reports.
func (h CLIHandler) Select(ctx context.Context, deviceID string) (dto.Device, error) {
	devices, err := h.devices.ListDevices(ctx)
	if err != nil {
		return dto.Device{}, err
	}
	for _, d := range devices {
		if d.ID != deviceID {
			continue
		}
		if _, err := h.prefs.Set(ctx, selectedDeviceKey, d.ID); err != nil {
			return dto.Device{}, err
		}
		return d, nil
	}
	return dto.Device{}, fmt.Errorf("%w: camera %q", apperrors.ErrNotFound, deviceID)
}
