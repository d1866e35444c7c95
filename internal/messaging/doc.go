// Package messaging runs the customer support threads.
//
// A customer opens a conversation with a subject and a first message. The
// customer and staff then append messages; a staff reply marks the
// customer's messages read. Watcher gives a live view of a conversation by
// polling for messages newer than the last one it delivered.
//
//	w := svc.Watch(conversationID, lastSeenID, time.Second)
//	if err := w.Start(ctx); err != nil {
//	    return err
//	}
//	defer w.Stop()
//	for {
//	    select {
//	    case batch := <-w.Updates():
//	        render(batch)
//	    case <-ctx.Done():
//	        return ctx.Err()
//	    }
//	}
package messaging
