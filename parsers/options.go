package parsers

import "github.com/rs/zerolog"

type readerOptions struct {
	leaveOpen bool
	interner  *Interner
	logger    zerolog.Logger
}

// Option はリーダーの設定を変更します。
type Option func(*readerOptions)

// WithLeaveOpen が true の場合、Close で元の io.Reader を閉じません。
func WithLeaveOpen(leaveOpen bool) Option {
	return func(o *readerOptions) {
		o.leaveOpen = leaveOpen
	}
}

// WithInterner は文字列の重複排除に in を使用します。
func WithInterner(in *Interner) Option {
	return func(o *readerOptions) {
		o.interner = in
	}
}

// WithLogger はパースの警告を出力するロガーを設定します。
func WithLogger(l zerolog.Logger) Option {
	return func(o *readerOptions) {
		o.logger = l
	}
}

func defaultReaderOptions() *readerOptions {
	return &readerOptions{logger: zerolog.Nop()}
}

func applyOptions(opts []Option) *readerOptions {
	o := defaultReaderOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
