package errors

import "fmt"

type PinRoleError struct {
	Role string
}

func (err PinRoleError) Error() string {
	if len(err.Role) == 0 {
		err.Role = "UNKNOWN"
	}

	return fmt.Sprintf("no pin configured for %s", err.Role)
}

type AngleRangeError struct {
	Angle int
}

func (err AngleRangeError) Error() string {
	return fmt.Sprintf("angle %d is outside the 0-180 sweep", err.Angle)
}

type ConfigVersionError struct {
	Version int
}

func (err ConfigVersionError) Error() string {
	return fmt.Sprintf("unable to work with config version %d", err.Version)
}

type FirmwareGateError struct {
	Running    string
	Constraint string
}

func (err FirmwareGateError) Error() string {
	return fmt.Sprintf("running firmware %s does not satisfy the configured constraint %s", err.Running, err.Constraint)
}

type ScanRangeError struct {
	Start, End, Step int
}

func (err ScanRangeError) Error() string {
	return fmt.Sprintf("scan sweep %d..%d step %d does not fit the 0-180 range", err.Start, err.End, err.Step)
}
