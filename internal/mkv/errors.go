package mkv

import "mediacorral/internal/apperr"

const component = "mkv"

func wrapDecode(op, msg string, cause error) error {
	return apperr.Wrap(apperr.ErrDecode, component, op, msg, cause)
}

func wrapPrecondition(op, msg string) error {
	return apperr.Wrap(apperr.ErrPrecondition, component, op, msg, nil)
}
