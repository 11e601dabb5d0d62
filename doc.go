// Package rhi is an API-neutral graphics backend layer.
//
// Callers describe GPU resources (buffers, textures, render targets,
// shaders, pipeline state) and draw operations with API-neutral descriptors
// and stable integer handles. A Backend replays them against a native
// driver.Device while keeping a shadow copy of binding state, so a native
// call is only issued when the state it sets actually changes.
//
// # Handles
//
// Handles are caller-chosen slot indices. Handle 0 means "no resource":
// binding it is a no-op. BackBufferColor and BackBufferDepth stand for the
// swap-chain image.
//
// # Frame model
//
//	b, _ := rhi.New(dev)
//	b.CreateBuffer(1, rhi.BufferDesc{BindFlags: rhi.BindVertexBuffer, Data: verts})
//	...
//	b.SetTargets([]rhi.Handle{rhi.BackBufferColor}, rhi.BackBufferDepth)
//	b.SetShader(vs, rhi.StageVertex)
//	b.SetShader(ps, rhi.StagePixel)
//	b.Draw(3, 0, gputypes.PrimitiveTopologyTriangleList)
//	b.Present()
//
// Set calls only record the requested state. Draw and dispatch resolve it:
// the program is looked up or linked, vertex input is re-specified, fixed
// function state is applied, in that order, and only for what differs from
// the applied snapshot. Present clears the applied snapshot.
//
// # Caches
//
// Linked programs are shared by every caller that pairs the same shader
// handles. Framebuffer objects are shared by every SetTargets call with the
// same attachments and are dropped wholesale when the back buffer is resized.
//
// # Errors
//
// Create calls return errors for invalid descriptors and missing device
// capabilities. Shader compile and program link failures are logged and
// leave an inert object behind. Misuse (unbalanced perf markers, binding the
// wrong resource kind, unmapped enum values) panics with *AssertionError.
// Native driver errors are logged when Config.CheckErrors is set and become
// assertions when Config.Debug is also set.
//
// A Backend is not safe for concurrent use; replay commands from one goroutine.
package rhi
