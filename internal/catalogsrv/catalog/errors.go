package catalog

import "github.com/tansive/polycatalog/internal/common/apperrors"

var (
	ErrCatalog    apperrors.Error = apperrors.New("catalog error")
	ErrAuthFailed apperrors.Error = ErrCatalog.New("invalid user name or password").SetKind(apperrors.KindInvalidInput)
)
