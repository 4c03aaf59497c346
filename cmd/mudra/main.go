// Command mudra runs the hand-controlled galaxy: webcam hand tracking, the
// particle and camera simulation, and the HTTP server feeding the renderer.
package main

func main() {
	Execute()
}
