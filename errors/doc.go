/*
Package errors implements the error handling used across swapkeep.

Every error returned by the application should be rooted in one of the
registered root errors. Reuse the errors declared in this package and register
an extension specific one with Register(code, description) only when none of
them fits.

Wrap the root error at the point of creation using errors.Wrap(err, "...") or
errors.Wrapf to attach a stacktrace. Only the innermost wrap records the
stack. Do not wrap at the package level (var ErrFoo = errors.Wrap(...)) or you
will get a useless stacktrace.

Test an error kind with the root error Is method:

	if errors.ErrNotFound.Is(err) {
		...
	}

Once you have an error, you can use fmt.Printf/Sprintf to get more context
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created

Info and Redact should be used before returning an error to a client, so that
no implementation details leak.
*/
package errors
