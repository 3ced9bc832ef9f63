// The MIT License (MIT)
//
// # Copyright (c) 2024 pinetree-games
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package gamenet

// Handler is the application collaborator wired into a Server. All three
// callbacks run synchronously on server goroutines and must not block; long
// work belongs on the application's own workers.
type Handler interface {
	// OnConnect runs after the session has been registered and before any of
	// its inbound frames. It may send or broadcast.
	OnConnect(id SessionID)

	// OnRecv runs on the session's read goroutine for every validated frame.
	// The payload is only valid for the duration of the call; implementations
	// must copy it if they retain it.
	OnRecv(id SessionID, t PacketType, payload []byte)

	// OnDisconnect runs exactly once per session, after the session has been
	// removed from the table.
	OnDisconnect(id SessionID)
}
