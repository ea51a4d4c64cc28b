package chrome

// JavaScript evaluated inside the meeting tab. Selectors target the
// Google Meet UI and are the part of this adapter most likely to rot;
// everything that consumes their results goes through host.Adapter.

const clickJoinScript = `(() => {
	const labels = ['Join now', 'Ask to join'];
	const buttons = Array.from(document.querySelectorAll('button, div[role="button"]'));
	for (const b of buttons) {
		const t = (b.textContent || '').trim();
		if (labels.some(l => t.includes(l))) { b.click(); return true; }
	}
	return false;
})()`

const inMeetingScript = `(() => {
	return !!document.querySelector('button[aria-label*="Leave call"], button[aria-label*="leave call"]');
})()`

const endWatchScript = `(() => {
	if (window.__mnEndObserver) return true;
	window.__mnMeetingEnded = false;
	window.__mnEndObserver = new MutationObserver(() => {
		const left = document.querySelector('.roSPhc');
		if (left && left.textContent.includes('You left the meeting')) {
			window.__mnMeetingEnded = true;
			window.__mnEndObserver.disconnect();
		}
	});
	window.__mnEndObserver.observe(document.body, { childList: true, subtree: true });
	return true;
})()`

const hasEndedScript = `(() => {
	if (window.__mnMeetingEnded === true) return true;
	const left = document.querySelector('.roSPhc');
	return !!(left && left.textContent && left.textContent.includes('You left the meeting'));
})()`

const enableCaptionsScript = `(() => {
	const btn = Array.from(document.querySelectorAll('button'))
		.find(b => (b.getAttribute('aria-label') || '').toLowerCase().includes('captions'));
	if (btn) { btn.click(); return true; }
	return false;
})()`

const captionObserverScript = `(() => {
	if (window.__mnCaptionObserver) return true;
	window.__mnLastCaption = null;

	function scan() {
		const containers = document.querySelectorAll('.a4cQT, .zs7s8d, .VR3bTd');
		containers.forEach(c => {
			const speakerElem = c.querySelector('.M4LFnf, .YTbUzc');
			const textElem = c.querySelector('.VR3bTd, .CNusmb, .Pf3Ezf');
			const speaker = speakerElem ? speakerElem.textContent.trim() : '';
			const text = textElem ? textElem.textContent.trim() : '';
			if (speaker && text) {
				window.__mnLastCaption = {
					timestamp: new Date().toISOString(),
					speaker: speaker,
					text: text
				};
			}
		});
	}

	window.__mnCaptionObserver = new MutationObserver(scan);
	window.__mnCaptionObserver.observe(document.body, {
		childList: true, subtree: true, characterData: true
	});
	window.__mnCaptionInterval = setInterval(scan, 1000);
	return true;
})()`

const latestCaptionScript = `JSON.stringify(window.__mnLastCaption || null)`

const stopCaptionsScript = `(() => {
	if (window.__mnCaptionObserver) {
		window.__mnCaptionObserver.disconnect();
		window.__mnCaptionObserver = null;
	}
	if (window.__mnCaptionInterval) {
		clearInterval(window.__mnCaptionInterval);
		window.__mnCaptionInterval = null;
	}
	return true;
})()`

const clickLeaveScript = `(() => {
	const btn = document.querySelector('button[aria-label*="Leave call"], button[aria-label*="leave call"]');
	if (btn) { btn.click(); return true; }
	return false;
})()`
