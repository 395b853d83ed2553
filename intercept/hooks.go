package intercept

// hooks carries the per-slot request handling shared by every shape.
type hooks[Req any] struct {
	stream func(Req) bool
	view   func(Req) any
}

func (h hooks[Req]) request(req Req) any {
	if h.view != nil {
		return h.view(req)
	}
	return req
}

func (h hooks[Req]) streaming(req Req) bool {
	if h.stream != nil && h.stream(req) {
		return true
	}
	if h.view != nil && streamRequested(h.view(req)) {
		return true
	}
	return streamRequested(req)
}
