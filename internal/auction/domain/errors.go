package domain

import "errors"

var (
	ErrLotNotFound      = errors.New("lot not found")
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrMediaNotFound    = errors.New("media not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrNotAuthorized    = errors.New("not authorized to change this lot")
	ErrLotNotDraft      = errors.New("only draft lots can be edited")
	ErrAuctionClosed    = errors.New("auction closed")
)
