package service

import "fmt"

// Stage - этап генерации, на котором запрос может оборваться.
type Stage string

const (
	StageLyrics Stage = "lyrics"
	StageImage  Stage = "image"
	StageAudio  Stage = "audio"
)

// Сообщения, которые видит пользователь.
const (
	MsgLyricsFailed = "Error generating story"
	MsgImageFailed  = "Error generating image"
	MsgAudioFailed  = "Error contacting music service"
)

// StageError - запрос прерван на этапе Stage, ничего не сохранено.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// UserMessage возвращает текст ошибки для страницы.
func (e *StageError) UserMessage() string {
	switch e.Stage {
	case StageLyrics:
		return MsgLyricsFailed
	case StageImage:
		return MsgImageFailed
	default:
		return MsgAudioFailed
	}
}
